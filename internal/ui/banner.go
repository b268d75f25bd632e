package ui

import (
	"fmt"
	"io"
	"math/rand"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pterm/pterm"
)

const bannerText = `
 █████╗ ██████╗ ██████╗ ██╗     ██╗ ██████╗ █████╗ ███╗   ██╗████████╗    ▄▄███▄▄·██╗     ███████╗██╗   ██╗████████╗██╗  ██╗
██╔══██╗██╔══██╗██╔══██╗██║     ██║██╔════╝██╔══██╗████╗  ██║╚══██╔══╝    ██╔════╝██║     ██╔════╝██║   ██║╚══██╔══╝██║  ██║
███████║██████╔╝██████╔╝██║     ██║██║     ███████║██╔██╗ ██║   ██║       ███████╗██║     █████╗  ██║   ██║   ██║   ███████║
██╔══██║██╔═══╝ ██╔═══╝ ██║     ██║██║     ██╔══██║██║╚██╗██║   ██║       ╚════██║██║     ██╔══╝  ██║   ██║   ██║   ██╔══██║
██║  ██║██║     ██║     ███████╗██║╚██████╗██║  ██║██║ ╚████║   ██║       ███████║███████╗███████╗╚██████╔╝   ██║   ██║  ██║
╚═╝  ╚═╝╚═╝     ╚═╝     ╚══════╝╚═╝ ╚═════╝╚═╝  ╚═╝╚═╝  ╚═══╝   ╚═╝       ╚═▀▀▀══╝╚══════╝╚══════╝ ╚═════╝    ╚═╝   ╚═╝  ╚═╝
 @fr4nk3nst1ner
`

// ColorizeText applies random colors to the input text
func ColorizeText(text string) string {
	random := rand.New(rand.NewSource(time.Now().UnixNano()))

	startColor := pterm.NewRGB(uint8(random.Intn(256)), uint8(random.Intn(256)), uint8(random.Intn(256)))
	firstPoint := pterm.NewRGB(uint8(random.Intn(256)), uint8(random.Intn(256)), uint8(random.Intn(256)))

	strs := strings.Split(text, "")
	half := len(strs) / 2
	if half == 0 {
		half = 1
	}

	var b strings.Builder
	for i, s := range strs {
		b.WriteString(startColor.Fade(0, float32(len(strs)), float32(i%half), firstPoint).Sprint(s))
	}
	return b.String()
}

// PrintBanner writes the application banner to w
func PrintBanner(w io.Writer, silence bool) {
	if !silence {
		fmt.Fprintln(w, ColorizeText(bannerText))
	}
}

// FormatURL formats a URL, optionally as a clickable terminal hyperlink using OSC 8 escape sequence
func FormatURL(url string, useHyperlink bool) string {
	if !useHyperlink {
		return url
	}
	// \a (BEL) terminates the sequence for wider compatibility
	return fmt.Sprintf("\033]8;;%s\a%s\033]8;;\a", url, "View Job")
}

// ColorizeCount colours an applicant count by how crowded the posting is
func ColorizeCount(count int) string {
	formatted := humanize.Comma(int64(count))

	switch {
	case count >= 500:
		return pterm.Red(formatted)
	case count >= 100:
		return pterm.Yellow(formatted)
	case count >= 25:
		return pterm.LightGreen(formatted)
	default:
		return pterm.Green(formatted)
	}
}
