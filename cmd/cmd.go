// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func userFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "user",
		Aliases: []string{"u"},
		Usage:   "User ID (defaults to the authenticated user)",
	}
}

// whoamiCommand prints the authenticated account
func whoamiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "whoami",
		Usage:  "Show the account the configured token belongs to",
		Action: r.Whoami,
	}
}

func trackCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "track",
		Usage: "Fetch a single track by ID or catalog URI",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "id"},
		},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "stream",
				Usage: "Resolve the playable stream URL",
			},
		},
		Action: r.Track,
	}
}

func tracksCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "tracks",
		Usage:  "List tracks uploaded by a user",
		Flags:  []cli.Flag{userFlag()},
		Action: r.Tracks,
	}
}

func likesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "likes",
		Usage:  "List liked tracks and playlists",
		Flags:  []cli.Flag{userFlag()},
		Action: r.Likes,
	}
}

func followingsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "followings",
		Aliases: []string{"following"},
		Usage:   "List followed users",
		Flags:   []cli.Flag{userFlag()},
		Action:  r.Followings,
	}
}

func streamCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "stream",
		Usage:  "Show tracks from the activity feed",
		Action: r.Stream,
	}
}

func setsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "sets",
		Aliases: []string{"playlists"},
		Usage:   "List playlists",
		Flags:   []cli.Flag{userFlag()},
		Action:  r.Sets,
	}
}

func setCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "set",
		Usage: "Show the tracks of a playlist",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "id"},
		},
		Action: r.Set,
	}
}

func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Search streamable tracks",
		ArgsUsage: "<query>...",
		Action:    r.Search,
	}
}

func resolveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "resolve",
		Usage: "Resolve a soundcloud.com URL into tracks",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "url"},
		},
		Action: r.Resolve,
	}
}

func batchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "batch",
		Usage:     "Fetch many tracks concurrently",
		ArgsUsage: "<id>...",
		Action:    r.Batch,
	}
}

func lookupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "lookup",
		Usage: "Look up a catalog, directory or sc: URI",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "uri"},
		},
		Action: r.Lookup,
	}
}

func imagesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "images",
		Usage:     "Show artwork for catalog or web URIs",
		ArgsUsage: "<uri>...",
		Action:    r.Images,
	}
}

// apiCommand handles direct API calls
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Direct calls to the SoundCloud API",
		Commands: []*cli.Command{
			{
				Name:  "get",
				Usage: "Authenticated GET, prints the raw response",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "path"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print JSON",
						Value: true,
					},
				},
				Action: r.APIGet,
			},
		},
	}
}

// configCommand handles the configuration file
func configCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "init",
				Usage:  "Write the default configuration file",
				Action: r.ConfigInit,
			},
		},
	}
}

// authCommand handles token management
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage authentication",
		Commands: []*cli.Command{
			{
				Name:  "import",
				Usage: "Import the OAuth token from a browser request (Copy as cURL)",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "curl",
						Usage: "cURL command from browser DevTools",
					},
					&cli.StringFlag{
						Name:  "curl-file",
						Usage: "Path to .sh file containing cURL command",
					},
				},
				Action: r.AuthImport,
			},
		},
	}
}
