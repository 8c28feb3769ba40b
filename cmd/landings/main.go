// Command landings queries Zanzibar fisheries landing-site metrics.
package main

import (
	"github.com/worldfishcenter/landings/cmd"
	"github.com/worldfishcenter/landings/internal/contract"
)

func main() {
	if err := cmd.Execute(); err != nil {
		contract.LogFatal("Command failed", err)
	}
}
