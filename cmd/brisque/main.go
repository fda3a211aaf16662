package main

import (
	"github.com/mchmarny/brisque/pkg/cli"
	"github.com/mchmarny/brisque/pkg/quality/brisque"
)

func main() {
	cli.Execute(brisque.NewEngine())
}
