package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/scloud/internal/formatter"
	"github.com/desertthunder/scloud/internal/models"
	"github.com/desertthunder/scloud/internal/services"
	"github.com/desertthunder/scloud/internal/shared"
	"github.com/urfave/cli/v3"
)

func requireArg(name, value string) error {
	if value == "" {
		return fmt.Errorf("%w: %s", shared.ErrMissingArgument, name)
	}
	return nil
}

// Whoami prints the authenticated account.
func (r *Runner) Whoami(ctx context.Context, cmd *cli.Command) error {
	svc, err := r.soundcloud(ctx)
	if err != nil {
		return err
	}

	user := svc.Me(ctx)
	if user == nil {
		return fmt.Errorf("%w: identity endpoint returned nothing", shared.ErrAuthFailed)
	}
	return r.writeSheet(formatter.User(user))
}

// Track fetches one track, resolving its stream URL when --stream is set.
func (r *Runner) Track(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if err := requireArg("id", id); err != nil {
		return err
	}

	trackID, err := services.ParseTrackURI(id)
	if err != nil {
		return err
	}

	svc, err := r.soundcloud(ctx)
	if err != nil {
		return err
	}

	var track *models.Track
	if cmd.Bool("stream") {
		track = svc.GetParsedTrack(ctx, trackID, true)
	} else {
		track = svc.GetTrack(ctx, trackID)
	}
	if track == nil {
		return fmt.Errorf("%w: track %s", shared.ErrNotFound, id)
	}

	return r.writeSheet(formatter.Tracks(track.Name, []models.Track{*track}))
}

// Tracks lists a user's uploads.
func (r *Runner) Tracks(ctx context.Context, cmd *cli.Command) error {
	svc, err := r.soundcloud(ctx)
	if err != nil {
		return err
	}
	return r.writeSheet(formatter.Tracks("Tracks", svc.GetTracks(ctx, cmd.String("user"))))
}

// Likes lists liked tracks, with liked playlists expanded.
func (r *Runner) Likes(ctx context.Context, cmd *cli.Command) error {
	svc, err := r.soundcloud(ctx)
	if err != nil {
		return err
	}
	return r.writeSheet(formatter.Tracks("Likes", svc.GetLikes(ctx, cmd.String("user"))))
}

// Followings lists followed users.
func (r *Runner) Followings(ctx context.Context, cmd *cli.Command) error {
	svc, err := r.soundcloud(ctx)
	if err != nil {
		return err
	}
	return r.writeSheet(formatter.Followings("Following", svc.GetFollowings(ctx, cmd.String("user"))))
}

// Stream shows tracks from the activity feed.
func (r *Runner) Stream(ctx context.Context, cmd *cli.Command) error {
	svc, err := r.soundcloud(ctx)
	if err != nil {
		return err
	}
	return r.writeSheet(formatter.Tracks("Stream", svc.GetUserStream(ctx)))
}

// Sets lists playlists.
func (r *Runner) Sets(ctx context.Context, cmd *cli.Command) error {
	svc, err := r.soundcloud(ctx)
	if err != nil {
		return err
	}
	return r.writeSheet(formatter.Sets("Sets", svc.GetSets(ctx, cmd.String("user"))))
}

// Set shows the parsed tracks of one playlist.
func (r *Runner) Set(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if err := requireArg("id", id); err != nil {
		return err
	}

	svc, err := r.soundcloud(ctx)
	if err != nil {
		return err
	}
	return r.writeSheet(formatter.Tracks("Set "+id, svc.Lookup(ctx, "soundcloud:directory:sets/"+id)))
}

// Search joins the positional arguments into one query.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	query := shared.SimplifyQuery(cmd.Args().Slice())
	if err := requireArg("query", query); err != nil {
		return err
	}

	svc, err := r.soundcloud(ctx)
	if err != nil {
		return err
	}
	return r.writeSheet(formatter.Tracks("Search: "+query, svc.Search(ctx, query)))
}

// Resolve flattens a web URL into tracks.
func (r *Runner) Resolve(ctx context.Context, cmd *cli.Command) error {
	rawURL := cmd.StringArg("url")
	if err := requireArg("url", rawURL); err != nil {
		return err
	}

	svc, err := r.soundcloud(ctx)
	if err != nil {
		return err
	}
	return r.writeSheet(formatter.Tracks(rawURL, svc.ResolveURL(ctx, rawURL)))
}

// Batch fetches every ID given on the command line concurrently.
func (r *Runner) Batch(ctx context.Context, cmd *cli.Command) error {
	ids := cmd.Args().Slice()
	if len(ids) == 0 {
		return fmt.Errorf("%w: at least one track id", shared.ErrMissingArgument)
	}

	svc, err := r.soundcloud(ctx)
	if err != nil {
		return err
	}

	tracks := svc.ResolveTracks(ctx, ids)
	if missing := len(ids) - len(tracks); missing > 0 {
		r.logger.Warn("some tracks could not be resolved", "requested", len(ids), "missing", missing)
	}
	return r.writeSheet(formatter.Tracks("Batch", tracks))
}

// Lookup maps a catalog, directory or sc: URI onto tracks.
func (r *Runner) Lookup(ctx context.Context, cmd *cli.Command) error {
	uri := cmd.StringArg("uri")
	if err := requireArg("uri", uri); err != nil {
		return err
	}

	svc, err := r.soundcloud(ctx)
	if err != nil {
		return err
	}
	return r.writeSheet(formatter.Tracks(uri, svc.Lookup(ctx, uri)))
}

// Images shows artwork for each URI.
func (r *Runner) Images(ctx context.Context, cmd *cli.Command) error {
	uris := cmd.Args().Slice()
	if len(uris) == 0 {
		return fmt.Errorf("%w: at least one uri", shared.ErrMissingArgument)
	}

	svc, err := r.soundcloud(ctx)
	if err != nil {
		return err
	}
	return r.writeSheet(formatter.Images(svc.GetImages(ctx, uris)))
}
