package main

import (
	"fmt"

	linkfifo "github.com/ardnew/splitkb/link/fifo"
	usbfifo "github.com/ardnew/splitkb/usb/fifo"
)

func runFifo(args []string) error {
	var (
		lf      logFlags
		linkDir string
		usbDirs []string
	)
	fs := newFlagSet("fifo", "[options]", &lf)
	fs.StringVar(&linkDir, "link", "", "directory for the serial line between halves")
	fs.StringSliceVar(&usbDirs, "usb", nil, "directory for an emulated USB interface (repeatable)")
	if _, err := parse(fs, &lf, args, 0); err != nil {
		return err
	}
	if linkDir == "" && len(usbDirs) == 0 {
		return fmt.Errorf("nothing to create, give --link or --usb: %w", errUsage)
	}

	if linkDir != "" {
		if err := linkfifo.Create(linkDir); err != nil {
			return err
		}
		fmt.Println("link:", linkDir)
	}
	for _, dir := range usbDirs {
		if err := usbfifo.Create(dir); err != nil {
			return err
		}
		fmt.Println("usb: ", dir)
	}
	return nil
}
