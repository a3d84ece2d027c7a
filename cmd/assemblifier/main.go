package main

import (
	"log"
	"os"

	"github.com/urfave/cli"
)

func main() {
	log.SetFlags(0)

	app := cli.NewApp()
	app.Name = "assemblifier"
	app.Usage = "convert images into terminal paint instructions as assembler source"
	app.Version = "1.0.0"
	app.Commands = []cli.Command{
		generateCommand,
		serveCommand,
	}

	if err := app.Run(os.Args); err != nil {
		log.Println(err)
		os.Exit(1)
	}
}
