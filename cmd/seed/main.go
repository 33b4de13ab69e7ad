// Command main runs the database seeder for Inkwell.
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"inkwell/internal/bootstrap"
	"inkwell/internal/config"
	"inkwell/internal/seed"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := seed.DefaultOptions()
	var categoriesOnly bool

	cmd := &cobra.Command{
		Use:          "seed",
		Short:        "Populate the database with demo authors, posts and comment threads",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if cfg.IsProduction() {
				return fmt.Errorf("refusing to seed a %s database", cfg.Env)
			}

			db, _, err := bootstrap.InitRuntime(cfg, bootstrap.Options{SeedCategories: true})
			if err != nil {
				return err
			}
			if categoriesOnly {
				log.Println("default categories seeded")
				return nil
			}

			opts.SkipCategories = true
			res, err := seed.NewSeeder(db, opts).Run()
			if err != nil {
				return fmt.Errorf("seeding failed: %w", err)
			}
			log.Printf("done: %d users, %d posts, %d comments, %d reactions",
				res.Users, res.Posts, res.Comments, res.Reactions)
			log.Printf("all seeded users have the password: %s", seed.DefaultPassword)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&opts.NumUsers, "users", opts.NumUsers, "number of users to create")
	flags.IntVar(&opts.NumPosts, "posts", opts.NumPosts, "number of posts to create")
	flags.IntVar(&opts.MaxComments, "max-comments", opts.MaxComments, "maximum comments per published post")
	flags.IntVar(&opts.MaxReplyDepth, "max-depth", opts.MaxReplyDepth, "maximum reply nesting")
	flags.IntVar(&opts.ReactionPercent, "reaction-percent", opts.ReactionPercent, "chance that a user reacts to a post")
	flags.IntVar(&opts.MaxDays, "max-days", opts.MaxDays, "spread post dates over this many days")
	flags.Int64Var(&opts.RandSeed, "rand-seed", 0, "seed for reproducible content (0 picks one)")
	flags.BoolVar(&opts.ShouldClean, "clean", opts.ShouldClean, "remove existing content first")
	flags.BoolVar(&opts.SkipBcrypt, "skip-bcrypt", false, "store the password unhashed (fast, test only)")
	flags.BoolVar(&opts.DryRun, "dry-run", false, "build content without writing it")
	flags.BoolVar(&categoriesOnly, "categories-only", false, "only upsert the default categories")
	return cmd
}
