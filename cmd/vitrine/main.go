package main

import (
	"github.com/samber/lo"

	"github.com/junsooki/vitrine/internal/config"
)

func main() {
	lo.Must0(config.Setup())
	Execute()
}
