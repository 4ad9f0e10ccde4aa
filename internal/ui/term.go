package ui

import (
	"fmt"
	"os"
	"syscall"
	"unsafe"

	"github.com/charmbracelet/lipgloss"
)

func panelString(inner string) string {
	border := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("8")).
		Padding(0, 1)
	return border.Render(inner)
}

func widthHeight() (int, int) {
	w, h := 80, 24
	if tw, th, err := termSize(); err == nil {
		w, h = tw, th
	}
	return w, h
}

// portable terminal size
func termSize() (int, int, error) {
	fd := int(os.Stdout.Fd())
	type winsize struct {
		Row, Col, Xpixel, Ypixel uint16
	}
	ws := &winsize{}
	_, _, err := syscall.Syscall(syscall.SYS_IOCTL,
		uintptr(fd), uintptr(syscall.TIOCGWINSZ), uintptr(unsafe.Pointer(ws)))
	if err != 0 {
		return 0, 0, fmt.Errorf("ioctl: %v", err)
	}
	return int(ws.Col), int(ws.Row), nil
}
