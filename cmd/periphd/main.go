package main

import (
	"flag"
	"log"

	"github.com/robotalks/perictl/pkg/controller"
	fx "github.com/robotalks/perictl/pkg/framework"
	"github.com/robotalks/perictl/pkg/l0/dispatch"
	"github.com/robotalks/perictl/pkg/l1"
	env "github.com/robotalks/perictl/pkg/l1/env/controller"
)

func init() {
	env.SetMeta(l1.ControllerMeta{Description: "Peripheral Controller"})
	env.SetupFlags()
	controller.SetupFlags()
}

func main() {
	flag.Parse()

	conf := controller.NewConfig()
	board, err := conf.OpenBoard()
	if err != nil {
		log.Fatalln(err)
	}
	decoder, err := dispatch.New(board.Collection())
	if err != nil {
		log.Fatalln(err)
	}

	meta := &env.Default().Info.Meta
	meta.Backend = "sim"
	if board.Hardware != nil {
		meta.Backend = "periph.io"
	}
	e := env.NewConfig().MustNewEnv()
	ctl := conf.NewController(decoder, e.Registrar)

	loop := fx.NewLoop().Add(e, ctl)
	loop.AddRunnable(fx.NamedRun("board", board))
	link, err := conf.NewLink(ctl)
	if err != nil {
		log.Fatalln(err)
	}
	if link != nil {
		loop.AddRunnable(fx.NamedRun("link", link))
	}
	ledLink, err := conf.NewLEDLink(ctl)
	if err != nil {
		log.Fatalln(err)
	}
	if ledLink != nil {
		loop.AddRunnable(fx.NamedRun("led", ledLink))
	}

	if err := fx.NewRunner().HandleSignals().Go(loop).Wait(); err != nil {
		log.Fatalln(err)
	}
}
