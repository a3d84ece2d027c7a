package main

import (
	"log"

	"github.com/tmpim/assemblifier"
	"github.com/tmpim/assemblifier/server"
	"github.com/urfave/cli"
)

var serveCommand = cli.Command{
	Name:  "serve",
	Usage: "serve the conversion API over HTTP",
	Flags: []cli.Flag{
		cli.StringFlag{
			Name:   "port",
			Usage:  "port to listen on",
			Value:  "9999",
			EnvVar: "PORT",
		},
		cli.StringFlag{
			Name:  "body-limit",
			Usage: "maximum request body size",
			Value: "16M",
		},
		cli.BoolFlag{
			Name:  "verify",
			Usage: "walk the linked records after every encode",
		},
		cli.BoolFlag{
			Name:  "debug",
			Usage: "log image dimensions and record counts",
		},
	},
	Action: runServe,
}

func runServe(c *cli.Context) error {
	verify := c.Bool("verify")
	debug := c.Bool("debug")

	e := server.New(server.Config{
		BodyLimit: c.String("body-limit"),
		Options: func() assemblifier.Options {
			return assemblifier.Options{Verify: verify, Debug: debug}
		},
	})

	log.Println("will be listening on port:", c.String("port"))
	return e.Start(":" + c.String("port"))
}
