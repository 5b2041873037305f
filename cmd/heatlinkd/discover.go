package main

import (
	"strings"

	"github.com/charmbracelet/log"
	"github.com/jochenvg/go-udev"
)

// discoverGPIOChip looks for a udev gpio-subsystem device when configured
// is empty, mirroring cm108.go's udev_enumerate_add_match_subsystem scan
// for CM108-style sound devices -- here scanning the "gpio" subsystem
// instead of "sound"/"hidraw" and taking the first character device
// found rather than matching a USB vendor/product pair. Returns "" (no
// override) if configured is already set, or nothing usable turns up.
func discoverGPIOChip(configured string, logger *log.Logger) string {
	if configured != "" {
		return ""
	}

	u := udev.Udev{}
	e := u.NewEnumerate()
	if err := e.AddMatchSubsystem("gpio"); err != nil {
		logger.Warn("gpio chip discovery: match subsystem", "err", err)
		return ""
	}
	devices, err := e.Devices()
	if err != nil {
		logger.Warn("gpio chip discovery: enumerate", "err", err)
		return ""
	}

	for _, dev := range devices {
		node := dev.Devnode()
		if strings.Contains(node, "gpiochip") {
			logger.Info("discovered gpio chip", "path", node)
			return node
		}
	}
	return ""
}

// discoverSerialDevice scans the "tty" subsystem for a USB-serial
// adapter's device node when configured is empty, the same
// enumerate-and-filter shape as discoverGPIOChip and cm108.go, matching
// on the parent USB device rather than a bare subsystem name so a
// machine's built-in UART (ttyS0, typically not USB-backed) is skipped.
func discoverSerialDevice(configured string, logger *log.Logger) string {
	if configured != "" {
		return ""
	}

	u := udev.Udev{}
	e := u.NewEnumerate()
	if err := e.AddMatchSubsystem("tty"); err != nil {
		logger.Warn("serial device discovery: match subsystem", "err", err)
		return ""
	}
	devices, err := e.Devices()
	if err != nil {
		logger.Warn("serial device discovery: enumerate", "err", err)
		return ""
	}

	for _, dev := range devices {
		parentUSB := dev.ParentWithSubsystemDevtype("usb", "usb_device")
		if parentUSB == nil {
			continue
		}
		node := dev.Devnode()
		if node == "" {
			continue
		}
		logger.Info("discovered serial device", "path", node)
		return node
	}
	return ""
}
