// command myoctl drives a Myo armband over a BLED112-class BGAPI
// dongle: scan, connect, stream samples, read battery.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"seedhammer.com/myodriver/bgapi"
	"seedhammer.com/myodriver/myo"
)

var (
	serialDev  = flag.String("device", "", "serial device (e.g. /dev/ttyACM0)")
	packetMode = flag.Bool("packet-mode", true, "use length-prefixed framing (off when hardware flow control is enabled)")
	scanFor    = flag.Duration("scan", 5*time.Second, "how long to scan for armbands")
	streamFor  = flag.Duration("stream", 0, "how long to stream samples (0 runs until interrupted)")
	neverSleep = flag.Bool("keep-awake", true, "disable the armband's low-power sleep while connected")
	logRaw     = flag.Bool("v", false, "log decoded BGAPI traffic")
)

func main() {
	log.SetFlags(0)
	flag.Parse()
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "myoctl: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if *serialDev == "" {
		return errors.New("specify -device")
	}
	action := flag.Arg(0)
	if action == "" {
		action = "stream"
	}

	c, err := myo.Open(*serialDev, *packetMode)
	if err != nil {
		return err
	}
	if *logRaw {
		c.Engine.DebugOut = os.Stderr
	}
	defer c.Close()

	if err := c.ClearState(0); err != nil {
		return fmt.Errorf("clear state: %w", err)
	}

	devices, err := c.DiscoverDevices(*scanFor)
	if err != nil {
		return fmt.Errorf("discover: %w", err)
	}
	if len(devices) == 0 {
		return errors.New("no armbands found")
	}
	log.Printf("found %d armband(s), connecting to the first", len(devices))

	if err := c.Connect(devices[0], 0); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer c.Disconnect(0)

	if err := c.DiscoverPrimaryServices(0); err != nil {
		return fmt.Errorf("discover services: %w", err)
	}
	if err := c.SetSleepMode(*neverSleep, 0); err != nil {
		return fmt.Errorf("set sleep mode: %w", err)
	}

	switch action {
	case "battery":
		level, err := c.ReadBatteryLevel(0)
		if err != nil {
			return fmt.Errorf("read battery: %w", err)
		}
		log.Printf("battery: %d%%", level)
		return nil
	case "stream":
		return stream(c)
	default:
		return fmt.Errorf("unknown action %q (want battery or stream)", action)
	}
}

func stream(c *myo.Controller) error {
	if err := c.EnableIMU(0); err != nil {
		return fmt.Errorf("enable imu: %w", err)
	}
	if err := c.EnableEMG(0); err != nil {
		return fmt.Errorf("enable emg: %w", err)
	}

	c.OnSample(func(s bgapi.Sample) {
		log.Printf("sample #%d t=%.4f emg=%v imu=%v", s.Sequence, s.Timestamp, s.EMG, s.IMU)
	})
	c.OnDisconnect(func(reason uint16) {
		log.Printf("disconnected: reason=0x%04x", reason)
	})

	if *streamFor > 0 {
		return c.ScanForDataPackets(*streamFor)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	done := make(chan struct{})
	go func() {
		<-quit
		close(done)
	}()
	for {
		select {
		case <-done:
			return nil
		default:
		}
		if err := c.ScanForDataPackets(200 * time.Millisecond); err != nil {
			return err
		}
	}
}
