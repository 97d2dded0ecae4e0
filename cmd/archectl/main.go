// Command archectl is a terminal client for the L'Arche des Savoirs API.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"arche/internal/client"
	"arche/internal/validation"

	"github.com/urfave/cli/v3"
)

func main() {
	args := os.Args
	if len(args) == 1 {
		args = append(args, "--help")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root := &cli.Command{
		Name:  "archectl",
		Usage: "Browse and contribute to L'Arche des Savoirs from the terminal",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Value: "http://localhost:8375", Usage: "API base URL", Sources: cli.EnvVars("ARCHE_URL")},
			&cli.StringFlag{Name: "anon-key", Usage: "public API key", Sources: cli.EnvVars("ARCHE_ANON_KEY")},
			&cli.StringFlag{Name: "service-key", Usage: "service API key for admin commands", Sources: cli.EnvVars("ARCHE_SERVICE_KEY")},
		},
		Commands: []*cli.Command{
			savoirsCommand(),
			voteCommand(),
			commentCommand(),
			authCommand(),
			profileCommand(),
			feedCommand(),
			flagsCommand(),
		},
	}

	if err := root.Run(ctx, args); err != nil {
		log.Fatal(err)
	}
}

// browserClient builds an anon-key client carrying the stored session.
func browserClient(c *cli.Command) (*client.Client, error) {
	key := c.String("anon-key")
	if key == "" {
		return nil, errors.New("anon key required (--anon-key or ARCHE_ANON_KEY)")
	}
	stored, err := loadSession()
	if err != nil {
		return nil, err
	}
	session := client.NewSession()
	if stored.Token != "" && stored.URL == c.String("url") {
		session = client.NewSessionWithToken(stored.Token)
	}
	return client.NewBrowserClient(c.String("url"), key, client.WithSession(session)), nil
}

func savoirsCommand() *cli.Command {
	return &cli.Command{
		Name:  "savoirs",
		Usage: "List, search and publish savoirs",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List published savoirs",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "category"},
					&cli.StringFlag{Name: "era"},
					&cli.StringFlag{Name: "region"},
					&cli.StringFlag{Name: "sort", Value: "recent", Usage: "recent, popular or votes"},
					&cli.StringFlag{Name: "user", Usage: "contributor id"},
					&cli.IntFlag{Name: "page", Value: 1},
					&cli.IntFlag{Name: "limit", Value: 20},
					&cli.BoolFlag{Name: "json", Usage: "output raw JSON"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					api, err := browserClient(c)
					if err != nil {
						return err
					}
					res, err := api.Savoirs(ctx, client.SavoirFilter{
						Category: c.String("category"),
						Era:      c.String("era"),
						Region:   c.String("region"),
						Sort:     c.String("sort"),
						UserID:   c.String("user"),
						Page:     int(c.Int("page")),
						Limit:    int(c.Int("limit")),
					})
					if err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(res.Data)
					}
					printSavoirs(res.Data)
					return nil
				},
			},
			{
				Name:      "search",
				Usage:     "Full-text search",
				ArgsUsage: "<query>",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Value: 20},
					&cli.BoolFlag{Name: "json", Usage: "output raw JSON"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					api, err := browserClient(c)
					if err != nil {
						return err
					}
					res, err := api.Search(ctx, strings.Join(c.Args().Slice(), " "), int(c.Int("limit")))
					if err != nil {
						return err
					}
					if res.Idle() {
						return errors.New("query required")
					}
					if c.Bool("json") {
						return printJSON(res.Data)
					}
					printSavoirs(res.Data)
					return nil
				},
			},
			{
				Name:      "get",
				Usage:     "Show one savoir by id or slug",
				ArgsUsage: "<id|slug>",
				Flags:     []cli.Flag{&cli.BoolFlag{Name: "json", Usage: "output raw JSON"}},
				Action: func(ctx context.Context, c *cli.Command) error {
					api, err := browserClient(c)
					if err != nil {
						return err
					}
					res, err := api.Savoir(ctx, c.Args().First())
					if err != nil {
						return err
					}
					if res.Idle() {
						return errors.New("id or slug required")
					}
					if c.Bool("json") {
						return printJSON(res.Data)
					}
					printSavoir(res.Data)
					return nil
				},
			},
			{
				Name:  "create",
				Usage: "Publish a savoir",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "title", Required: true},
					&cli.StringFlag{Name: "excerpt", Required: true},
					&cli.StringFlag{Name: "content", Usage: "body text, or @path to read a file"},
					&cli.StringFlag{Name: "category", Required: true},
					&cli.StringFlag{Name: "era", Required: true},
					&cli.StringFlag{Name: "region"},
					&cli.StringFlag{Name: "tags", Usage: "comma separated"},
					&cli.StringFlag{Name: "images", Usage: "comma separated URLs"},
					&cli.BoolFlag{Name: "draft", Usage: "keep unpublished"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					api, err := browserClient(c)
					if err != nil {
						return err
					}
					content, err := readArg(c.String("content"))
					if err != nil {
						return err
					}
					form := validation.Values{
						"title":     c.String("title"),
						"excerpt":   c.String("excerpt"),
						"content":   content,
						"category":  c.String("category"),
						"era":       c.String("era"),
						"region":    c.String("region"),
						"tags":      c.String("tags"),
						"images":    c.String("images"),
						"published": fmt.Sprint(!c.Bool("draft")),
					}
					s, err := api.SubmitSavoirForm(ctx, form)
					if err != nil {
						printFieldErrors(err)
						return err
					}
					fmt.Printf("published %s (%s)\n", s.Slug, s.ID)
					return nil
				},
			},
			{
				Name:      "delete",
				Usage:     "Delete one of your savoirs",
				ArgsUsage: "<id>",
				Action: func(ctx context.Context, c *cli.Command) error {
					api, err := browserClient(c)
					if err != nil {
						return err
					}
					if err := api.DeleteSavoir(ctx, c.Args().First()); err != nil {
						return err
					}
					fmt.Println("deleted")
					return nil
				},
			},
		},
	}
}

func voteCommand() *cli.Command {
	return &cli.Command{
		Name:      "vote",
		Usage:     "Up or down vote a savoir",
		ArgsUsage: "<savoir-id>",
		Flags:     []cli.Flag{&cli.BoolFlag{Name: "down", Usage: "cast a downvote"}},
		Action: func(ctx context.Context, c *cli.Command) error {
			api, err := browserClient(c)
			if err != nil {
				return err
			}
			voteType := 1
			if c.Bool("down") {
				voteType = -1
			}
			res, err := api.Vote(ctx, c.Args().First(), voteType)
			if err != nil {
				return err
			}
			printKV([][2]string{
				{"vote", fmt.Sprint(res.Vote)},
				{"votes", fmt.Sprint(res.VotesCount)},
				{"approval", fmt.Sprintf("%d%%", res.ApprovalRate)},
			})
			return nil
		},
	}
}

func commentCommand() *cli.Command {
	return &cli.Command{
		Name:  "comments",
		Usage: "Read and write comments",
		Commands: []*cli.Command{
			{
				Name:      "list",
				ArgsUsage: "<savoir-id>",
				Action: func(ctx context.Context, c *cli.Command) error {
					api, err := browserClient(c)
					if err != nil {
						return err
					}
					res, err := api.Comments(ctx, c.Args().First())
					if err != nil {
						return err
					}
					printComments(res.Data)
					return nil
				},
			},
			{
				Name:      "add",
				ArgsUsage: "<savoir-id> <text>",
				Flags:     []cli.Flag{&cli.StringFlag{Name: "reply-to", Usage: "parent comment id"}},
				Action: func(ctx context.Context, c *cli.Command) error {
					api, err := browserClient(c)
					if err != nil {
						return err
					}
					args := c.Args().Slice()
					if len(args) < 2 {
						return errors.New("savoir id and text required")
					}
					cm, err := api.CreateComment(ctx, args[0], strings.Join(args[1:], " "), c.String("reply-to"))
					if err != nil {
						return err
					}
					fmt.Printf("comment %s added\n", cm.ID)
					return nil
				},
			},
		},
	}
}

func authCommand() *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Account and session commands",
		Commands: []*cli.Command{
			{
				Name:  "signup",
				Usage: "Create an account",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Required: true},
					&cli.StringFlag{Name: "password", Required: true},
					&cli.StringFlag{Name: "name", Required: true, Usage: "full name"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					api, err := browserClient(c)
					if err != nil {
						return err
					}
					res, err := api.SignUp(ctx, client.SignUpInput{
						Email: c.String("email"), Password: c.String("password"), FullName: c.String("name"),
					})
					if err != nil {
						printFieldErrors(err)
						return err
					}
					fmt.Println(res.Message)
					return nil
				},
			},
			{
				Name:  "signin",
				Usage: "Sign in and store the session token",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Required: true},
					&cli.StringFlag{Name: "password", Required: true},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					api, err := browserClient(c)
					if err != nil {
						return err
					}
					if _, err := api.SignIn(ctx, c.String("email"), c.String("password")); err != nil {
						return err
					}
					s := api.Session()
					if err := saveSession(storedSession{URL: c.String("url"), Token: s.Token(), ExpiresAt: s.ExpiresAt()}); err != nil {
						return err
					}
					fmt.Printf("signed in as %s\n", s.User().Username)
					return nil
				},
			},
			{
				Name:  "whoami",
				Usage: "Show the current session",
				Action: func(ctx context.Context, c *cli.Command) error {
					api, err := browserClient(c)
					if err != nil {
						return err
					}
					if err := api.Refresh(ctx); err != nil {
						return err
					}
					s := api.Session()
					if !s.IsAuthenticated() {
						fmt.Println("not signed in")
						return nil
					}
					u := s.User()
					printKV([][2]string{
						{"id", u.ID},
						{"username", u.Username},
						{"name", u.FullName},
						{"email", u.Email},
						{"reputation", fmt.Sprint(u.ReputationScore)},
						{"expires", formatTime(s.ExpiresAt())},
					})
					return nil
				},
			},
			{
				Name:  "signout",
				Usage: "Revoke the stored session",
				Action: func(ctx context.Context, c *cli.Command) error {
					api, err := browserClient(c)
					if err != nil {
						return err
					}
					if err := api.SignOut(ctx); err != nil {
						return err
					}
					return clearSession()
				},
			},
		},
	}
}

func profileCommand() *cli.Command {
	return &cli.Command{
		Name:  "profiles",
		Usage: "Profiles and the leaderboard",
		Commands: []*cli.Command{
			{
				Name:      "show",
				ArgsUsage: "<username>",
				Flags:     []cli.Flag{&cli.BoolFlag{Name: "json", Usage: "output raw JSON"}},
				Action: func(ctx context.Context, c *cli.Command) error {
					api, err := browserClient(c)
					if err != nil {
						return err
					}
					res, err := api.Profile(ctx, c.Args().First())
					if err != nil {
						return err
					}
					if res.Idle() {
						return errors.New("username required")
					}
					if c.Bool("json") {
						return printJSON(res.Data)
					}
					printProfile(res.Data)
					return nil
				},
			},
			{
				Name: "leaderboard",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "page", Value: 1},
					&cli.IntFlag{Name: "limit", Value: 20},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					api, err := browserClient(c)
					if err != nil {
						return err
					}
					res, err := api.Leaderboard(ctx, int(c.Int("page")), int(c.Int("limit")))
					if err != nil {
						return err
					}
					printProfiles(res.Data.Data)
					return nil
				},
			},
			{
				Name:      "follow",
				Usage:     "Toggle following a profile",
				ArgsUsage: "<user-id>",
				Action: func(ctx context.Context, c *cli.Command) error {
					api, err := browserClient(c)
					if err != nil {
						return err
					}
					id := c.Args().First()
					if err := api.ToggleFollow(ctx, id); err != nil {
						return err
					}
					res, err := api.IsFollowing(ctx, id)
					if err != nil {
						return err
					}
					fmt.Printf("following: %t\n", res.Data)
					return nil
				},
			},
		},
	}
}

func feedCommand() *cli.Command {
	return &cli.Command{
		Name:  "feed",
		Usage: "Activity feed",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "Recent activities from you and the profiles you follow",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "user", Usage: "only this profile"},
					&cli.IntFlag{Name: "limit", Value: 20},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					api, err := browserClient(c)
					if err != nil {
						return err
					}
					res, err := api.Activities(ctx, client.ActivityFilter{UserID: c.String("user"), Limit: int(c.Int("limit"))})
					if err != nil {
						return err
					}
					printActivities(res.Data.Data)
					return nil
				},
			},
			{
				Name:  "watch",
				Usage: "Stream live activities until interrupted",
				Action: func(ctx context.Context, c *cli.Command) error {
					api, err := browserClient(c)
					if err != nil {
						return err
					}
					return api.WatchActivities(ctx, func(ev client.Event) error {
						if ev.Payload != nil {
							printActivityLine(*ev.Payload)
						}
						return nil
					})
				},
			},
		},
	}
}

func flagsCommand() *cli.Command {
	return &cli.Command{
		Name:  "flags",
		Usage: "Show feature flags (service key)",
		Action: func(ctx context.Context, c *cli.Command) error {
			key := c.String("service-key")
			if key == "" {
				return errors.New("service key required (--service-key or ARCHE_SERVICE_KEY)")
			}
			api := client.NewServiceClient(c.String("url"), key)
			raw, evaluated, err := api.FeatureFlags(ctx)
			if err != nil {
				return err
			}
			printFlags(raw, evaluated)
			return nil
		},
	}
}

func readArg(v string) (string, error) {
	if !strings.HasPrefix(v, "@") {
		return v, nil
	}
	b, err := os.ReadFile(strings.TrimPrefix(v, "@"))
	if err != nil {
		return "", err
	}
	return string(b), nil
}
