package main

import (
	"context"
	"log"

	"github.com/dayhubapp/dayhub/internal/portal"
	"github.com/dayhubapp/dayhub/internal/portal/config"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := portal.NewApp(ctx, cfg)

	if err != nil {
		log.Printf("%v", err)
		return
	}

	app.Run(ctx)

}
