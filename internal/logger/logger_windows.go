//go:build windows
// +build windows

package logger

import (
	"os"

	"golang.org/x/sys/windows"
)

const SupportsColorEscapes = true

func GetTerminalInfo(file *os.File) (info TerminalInfo) {
	fd := windows.Handle(file.Fd())

	// Is this file descriptor a terminal?
	var mode uint32
	if err := windows.GetConsoleMode(fd, &mode); err == nil {
		info.IsTTY = true

		// Enable VT escape processing so ANSI colors work. Modern Windows
		// terminals all support this; if it fails we fall back to plain text.
		if err := windows.SetConsoleMode(fd, mode|windows.ENABLE_VIRTUAL_TERMINAL_PROCESSING); err == nil {
			info.UseColorEscapes = !hasNoColorEnvironmentVariable()
		}

		var buf windows.ConsoleScreenBufferInfo
		if err := windows.GetConsoleScreenBufferInfo(fd, &buf); err == nil {
			info.Width = int(buf.Size.X) - 1
			info.Height = int(buf.Size.Y) - 1
		}
	}

	return
}

func writeStringWithColor(file *os.File, text string) {
	file.WriteString(text)
}
