// am32flash talks to the bootloader of AM32 brushless ESCs over a serial
// passthrough: it identifies the ESC, flashes firmware and reads or writes
// the settings block.
//
//	am32flash [flags] info
//	am32flash [flags] flash FIRMWARE.bin
//	am32flash [flags] read-config [-o FILE] [-restore]
//	am32flash [flags] write-config FILE
//	am32flash [flags] restore-config
package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/schollz/progressbar/v3"
	"github.com/sirupsen/logrus"

	"github.com/synthread/go-am32flash/eeprom"
	"github.com/synthread/go-am32flash/flash"
)

var (
	fPort     = flag.String("p", flash.DefaultTTY, "serial port of the passthrough, or tcp:HOST:PORT")
	fBaud     = flag.Int("b", flash.DefaultBaud, "baud rate")
	fSettle   = flag.Duration("settle", flash.DefaultSettleDelay, "delay between a write and each ack poll")
	fRetries  = flag.Int("reset-retries", flash.DefaultResetRetries, "handshake retries after the first reset (0 = send the reset once)")
	fAttempts = flag.Int("attempts", flash.DefaultSendAttempts, "attempts per chunk before giving up (at least 1)")
	fPower    = flag.Int("power-gpio", 0, "GPIO switching the ESC supply, power cycled before connecting (0 = none)")
	fVerbose  = flag.Bool("v", false, "log every frame")
)

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] info|flash|read-config|write-config|restore-config [args]\n", os.Args[0])
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	flag.Parse()

	if *fVerbose {
		logrus.SetLevel(logrus.DebugLevel)
	}

	if flag.NArg() < 1 {
		usage()
		os.Exit(2)
	}

	if err := run(flag.Arg(0), flag.Args()[1:]); err != nil {
		logrus.Fatal(err)
	}
}

type closer interface {
	flash.Link
	Close() error
}

func openLink(c *flash.Config) (closer, error) {
	if addr, ok := strings.CutPrefix(*fPort, "tcp:"); ok {
		return flash.DialTCP(addr)
	}
	return flash.OpenSerial(c)
}

// newConfig maps the command line onto a flash.Config. Unlike the library,
// where a zero field selects the default, a zero here is taken literally.
func newConfig(port string, baud int, settle time.Duration, retries, attempts, power int) (*flash.Config, error) {
	if retries < 0 {
		return nil, errors.Errorf("reset retries must not be negative, got %d", retries)
	}
	if attempts < 1 {
		return nil, errors.Errorf("attempts must be at least 1, got %d", attempts)
	}

	c := &flash.Config{
		TTY:          port,
		BaudRate:     baud,
		SettleDelay:  settle,
		ResetRetries: retries,
		SendAttempts: attempts,
		PowerGPIO:    power,
	}
	if retries == 0 {
		c.ResetRetries = flash.NoRetries
	}
	return c, nil
}

func run(cmd string, args []string) error {
	c, err := newConfig(*fPort, *fBaud, *fSettle, *fRetries, *fAttempts, *fPower)
	if err != nil {
		return err
	}

	var handler func(*flash.Session, []string) error
	switch cmd {
	case "info":
		handler = cmdInfo
	case "flash":
		handler = cmdFlash
	case "read-config":
		handler = cmdReadConfig
	case "write-config":
		handler = cmdWriteConfig
	case "restore-config":
		handler = cmdRestoreConfig
	default:
		return errors.Errorf("unknown command %q", cmd)
	}

	link, err := openLink(c)
	if err != nil {
		return err
	}
	defer link.Close()

	s := flash.NewSession(link, c)
	if err := s.Connect(); err != nil {
		return err
	}

	return handler(s, args)
}

func cmdInfo(s *flash.Session, _ []string) error {
	p := s.Profile()
	fmt.Printf("MCU:        %s\n", p)
	fmt.Printf("EEPROM:     0x%04x (%d bytes)\n", p.EEPROMAddress(), p.ConfigSize())

	bs, err := s.ReadConfig()
	if err != nil {
		return err
	}
	block, err := eeprom.Parse(bs)
	if err != nil {
		return err
	}

	fmt.Printf("Name:       %s\n", block.Name())
	fmt.Printf("Firmware:   %s\n", block.FirmwareVersion())
	fmt.Printf("Bootloader: %d\n", block.BootloaderVersion())
	fmt.Printf("Layout:     %d\n", block.LayoutVersion())
	return nil
}

func cmdFlash(s *flash.Session, args []string) error {
	if len(args) != 1 {
		return errors.New("flash needs exactly one firmware file")
	}

	img, err := flash.LoadImageFile(args[0])
	if err != nil {
		return err
	}
	chunks := img.Chunks()

	bar := progressbar.NewOptions(100,
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription(fmt.Sprintf("Writing %d bytes", len(img.Data))),
		progressbar.OptionOnCompletion(func() { fmt.Println() }),
	)

	done := make(chan error, 1)
	go func() {
		done <- s.WriteFirmware(chunks)
	}()

	tick := time.NewTicker(100 * time.Millisecond)
	defer tick.Stop()

	for {
		select {
		case err := <-done:
			bar.Set(s.FlashDonePercentage())
			if err != nil {
				return err
			}
			bar.Finish()
			fmt.Println("Flash written!")
			return nil
		case <-tick.C:
			bar.Set(s.FlashDonePercentage())
		}
	}
}

func cmdReadConfig(s *flash.Session, args []string) error {
	fs := flag.NewFlagSet("read-config", flag.ContinueOnError)
	out := fs.String("o", "", "write the block to this file")
	restore := fs.Bool("restore", false, "write the default block if the layout version is unknown")
	if err := fs.Parse(args); err != nil {
		return err
	}

	bs, err := s.ReadConfig()
	if err != nil {
		return err
	}
	block, err := eeprom.Parse(bs)
	if err != nil {
		return err
	}

	fmt.Print(hex.Dump(block))

	if *out != "" {
		if err := os.WriteFile(*out, block, 0o644); err != nil {
			return errors.Wrap(err, "could not save settings")
		}
	}

	if def := eeprom.Default(); !block.Compatible(def) {
		logrus.Warnf("settings layout %d, expected %d", block.LayoutVersion(), def.LayoutVersion())
		if *restore {
			return s.WriteConfig(def)
		}
	}

	return nil
}

func cmdWriteConfig(s *flash.Session, args []string) error {
	if len(args) != 1 {
		return errors.New("write-config needs exactly one settings file")
	}

	bs, err := os.ReadFile(args[0])
	if err != nil {
		return errors.Wrap(err, "could not read settings")
	}

	return s.WriteConfig(bs)
}

func cmdRestoreConfig(s *flash.Session, _ []string) error {
	return s.WriteConfig(eeprom.Default())
}
