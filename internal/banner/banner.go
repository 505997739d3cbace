package banner

import (
	"github.com/pterm/pterm"
	"github.com/pterm/pterm/putils"
)

// Print renders the startup banner with the name of the running tool
func Print(tool string) {
	logo, _ := pterm.DefaultBigText.WithLetters(
		putils.LettersFromStringWithRGB("Access", pterm.NewRGB(0, 135, 95)),
		putils.LettersFromStringWithRGB("Lens", pterm.NewRGB(255, 175, 0))).
		Srender()

	pterm.DefaultCenter.Print(logo)

	pterm.DefaultCenter.Print(
		pterm.DefaultHeader.
			WithFullWidth().
			WithBackgroundStyle(pterm.NewStyle(pterm.BgGreen)).
			WithMargin(5).
			Sprint(pterm.White("AccessLens - " + tool)),
	)

	pterm.Info.Println(
		"Offline proxy log classification and SMS corpus conversion." +
			"\nVersion 0.1.0.",
	)
}
