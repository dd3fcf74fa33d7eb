package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"text/tabwriter"

	"github.com/simp-lee/dataconsole/internal/app"
	"github.com/simp-lee/dataconsole/internal/config"
	"github.com/simp-lee/dataconsole/internal/route"
	"github.com/simp-lee/dataconsole/internal/router"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to configuration file")
	printRoutes := flag.Bool("routes", false, "print the route table and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal("failed to load config: ", err)
	}

	if *printRoutes {
		if err := writeRoutes(os.Stdout, cfg); err != nil {
			log.Fatal("failed to build route table: ", err)
		}
		return
	}

	a, err := app.New(cfg)
	if err != nil {
		log.Fatal("failed to create app: ", err)
	}

	if err := a.Run(); err != nil {
		log.Fatal("server error: ", err)
	}
}

// writeRoutes prints the route table as the server mounts it, below the
// configured base.
func writeRoutes(out io.Writer, cfg *config.Config) error {
	t, err := route.New(route.Console(),
		route.WithSensitive(cfg.Router.Sensitive),
		route.WithStrict(cfg.Router.Strict),
	)
	if err != nil {
		return err
	}
	rt, err := router.New(t, router.WithBase(cfg.Router.Base))
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PATH\tNAME\tTARGET")
	for _, d := range t.Descriptors() {
		target := "-> " + rt.Href(d.Redirect)
		if d.Page != nil {
			target = d.Page.Template
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", rt.Href(d.Path), d.Name, target)
	}
	return w.Flush()
}
