package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/socialsense/socialsense-go/client"
	"github.com/socialsense/socialsense-go/internal/config"
)

var serviceURL string
var dataDir string
var debug bool

const commandTimeout = 30 * time.Second

func dbg(v interface{}) {
	if !debug {
		return
	}
	log.Debug().Interface("data", v).Msg("debug output")
}

func main() {
	cmd := NewRootCmd()
	if err := cmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

// newClient builds an SDK client for one command invocation. Refreshes run
// inline since the process exits right after the command returns.
func newClient() (*client.Client, error) {
	return client.New(serviceURL,
		client.WithFileStore(dataDir),
		client.WithoutRefresher(),
		client.WithDebugLogging(debug),
	)
}

func cmdContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), commandTimeout)
}

// NewRootCmd constructs the root CLI command; exposed for unit testing.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "socialsense",
		Short: "social-sense CLI for the forum, profile, and query history",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			config.InitLogger()
			if debug {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
				os.Setenv("SOCIALSENSE_DEBUG", "true")
				log.Debug().Msg("debug logging enabled")
			} else {
				zerolog.SetGlobalLevel(zerolog.InfoLevel)
			}
		},
	}

	cfg := config.Load()
	rootCmd.PersistentFlags().StringVar(&serviceURL, "service-url", cfg.ServiceURL, "Base URL of the social-sense backend")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", cfg.DataDir, "Directory for persisted session and cache data")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "Enable verbose debug output")

	rootCmd.AddCommand(newRegisterCmd())
	rootCmd.AddCommand(newLoginCmd())
	rootCmd.AddCommand(newLogoutCmd())
	rootCmd.AddCommand(newWhoamiCmd())
	rootCmd.AddCommand(newVerifyCmd())
	rootCmd.AddCommand(newRefreshTokenCmd())
	rootCmd.AddCommand(newUpdateProfileCmd())
	rootCmd.AddCommand(newQuestionsCmd())
	rootCmd.AddCommand(newPostQuestionCmd())
	rootCmd.AddCommand(newReplyCmd())
	rootCmd.AddCommand(newDeleteQuestionCmd())
	rootCmd.AddCommand(newDeleteAnswerCmd())
	rootCmd.AddCommand(newHistoriesCmd())
	rootCmd.AddCommand(newCreateHistoryCmd())
	rootCmd.AddCommand(newAddQueryCmd())
	rootCmd.AddCommand(newRemoveQueryCmd())
	rootCmd.AddCommand(newDeleteHistoryCmd())
	rootCmd.AddCommand(newGetQueryCmd())

	return rootCmd
}

func newRegisterCmd() *cobra.Command {
	var req client.RegisterRequest

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and log in",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()
			ctx, cancel := cmdContext(cmd)
			defer cancel()

			req.ConfirmPassword = req.Password
			user, _, err := c.Register(ctx, req)
			if err != nil {
				log.Error().Err(err).Str("username", req.Username).Msg("registration failed")
				return err
			}
			dbg(user)
			fmt.Printf("Registered and logged in as %s (%s)\n", user.Username, user.Email)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Username, "username", "", "Username (required)")
	cmd.Flags().StringVar(&req.Email, "email", "", "Email address (required)")
	cmd.Flags().StringVar(&req.Name, "name", "", "Display name (required)")
	cmd.Flags().StringVar(&req.Password, "password", "", "Password (required)")
	cmd.Flags().IntVar(&req.Age, "age", 0, "Age (optional)")
	cmd.Flags().StringVar(&req.Gender, "gender", "", "Gender (optional)")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func newLoginCmd() *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and persist the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()
			ctx, cancel := cmdContext(cmd)
			defer cancel()

			start := time.Now()
			user, _, err := c.Login(ctx, username, password)
			if err != nil {
				log.Error().Err(err).Str("username", username).Dur("elapsed", time.Since(start)).Msg("login failed")
				return err
			}
			dbg(user)
			fmt.Printf("Logged in as %s (%s)\n", user.Username, user.Email)
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "Username (required)")
	cmd.Flags().StringVar(&password, "password", "", "Password (required)")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Log out and purge the local session",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()
			ctx, cancel := cmdContext(cmd)
			defer cancel()

			if err := c.Logout(ctx); err != nil {
				return err
			}
			fmt.Println("Logged out")
			return nil
		},
	}
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current user's profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()
			ctx, cancel := cmdContext(cmd)
			defer cancel()

			user, err := c.UserProfile(ctx)
			if err != nil {
				return err
			}
			dbg(user)
			fmt.Printf("%s (%s): %s, joined %s\n", user.Username, user.Email, user.Name, user.CreatedAt)
			return nil
		},
	}
}

func newVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check whether the stored session is still usable",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()
			ctx, cancel := cmdContext(cmd)
			defer cancel()

			if c.IsLoggedIn(ctx) {
				fmt.Println("Session is valid")
				return nil
			}
			fmt.Println("Not logged in")
			return nil
		},
	}
}

func newRefreshTokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh-token",
		Short: "Rotate the session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()
			ctx, cancel := cmdContext(cmd)
			defer cancel()

			if c.RefreshToken(ctx) {
				fmt.Println("Token refreshed")
				return nil
			}
			return fmt.Errorf("token refresh failed")
		},
	}
}

func newUpdateProfileCmd() *cobra.Command {
	var upd client.UserUpdate

	cmd := &cobra.Command{
		Use:   "update-profile",
		Short: "Update profile fields",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()
			ctx, cancel := cmdContext(cmd)
			defer cancel()

			user, err := c.UpdateProfile(ctx, upd)
			if err != nil {
				log.Error().Err(err).Msg("profile update failed")
				return err
			}
			dbg(user)
			fmt.Printf("Profile updated: %s (%s)\n", user.Username, user.Email)
			return nil
		},
	}

	cmd.Flags().StringVar(&upd.Username, "username", "", "New username")
	cmd.Flags().StringVar(&upd.Email, "email", "", "New email")
	cmd.Flags().StringVar(&upd.Name, "name", "", "New display name")
	cmd.Flags().IntVar(&upd.Age, "age", 0, "New age")
	cmd.Flags().StringVar(&upd.Gender, "gender", "", "New gender")

	return cmd
}

func newQuestionsCmd() *cobra.Command {
	var mine bool
	var sortBy string

	cmd := &cobra.Command{
		Use:   "questions",
		Short: "List forum questions with their reply counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()
			ctx, cancel := cmdContext(cmd)
			defer cancel()

			feed := c.NewFeed()
			feed.SetShowMine(ctx, mine)
			if err := feed.ApplySort(ctx, client.SortCriterion(sortBy)); err != nil {
				return err
			}
			if err := feed.Load(ctx); err != nil {
				return err
			}

			qs := feed.Questions()
			if len(qs) == 0 {
				fmt.Println("No questions")
				return nil
			}
			for _, q := range qs {
				fmt.Printf("%s  %-30s  by %-15s  %d replies  %s\n",
					q.QuestionID, q.QuestionHeader, q.Username, len(feed.Answers(q.QuestionID)), q.CreationDate)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&mine, "mine", false, "Show only your questions")
	cmd.Flags().StringVar(&sortBy, "sort", string(client.SortDefault),
		"Sort criterion: default|newest|oldest|most_replies|recent_activity|alphabetical|your_questions")

	return cmd
}

func newPostQuestionCmd() *cobra.Command {
	var title, body string

	cmd := &cobra.Command{
		Use:   "post-question",
		Short: "Create a forum question",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()
			ctx, cancel := cmdContext(cmd)
			defer cancel()

			q, err := c.PostQuestion(ctx, title, body)
			if err != nil {
				return err
			}
			dbg(q)
			fmt.Printf("Question created: %s\n", q.QuestionID)
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Question title (required)")
	cmd.Flags().StringVar(&body, "body", "", "Question body (required)")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("body")

	return cmd
}

func newReplyCmd() *cobra.Command {
	var questionID, body string

	cmd := &cobra.Command{
		Use:   "reply",
		Short: "Reply to a forum question",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()
			ctx, cancel := cmdContext(cmd)
			defer cancel()

			a, err := c.PostReply(ctx, questionID, body)
			if err != nil {
				return err
			}
			dbg(a)
			fmt.Printf("Reply created: %s\n", a.AnswerID)
			return nil
		},
	}

	cmd.Flags().StringVar(&questionID, "question-id", "", "Question ID (required)")
	cmd.Flags().StringVar(&body, "body", "", "Reply body (required)")
	_ = cmd.MarkFlagRequired("question-id")
	_ = cmd.MarkFlagRequired("body")

	return cmd
}

func newDeleteQuestionCmd() *cobra.Command {
	var id string

	cmd := &cobra.Command{
		Use:   "delete-question",
		Short: "Delete one of your questions",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()
			ctx, cancel := cmdContext(cmd)
			defer cancel()

			if err := c.DeleteQuestion(ctx, id); err != nil {
				return err
			}
			fmt.Printf("Question deleted: %s\n", id)
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "Question ID (required)")
	_ = cmd.MarkFlagRequired("id")

	return cmd
}

func newDeleteAnswerCmd() *cobra.Command {
	var id string

	cmd := &cobra.Command{
		Use:   "delete-answer",
		Short: "Delete one of your answers",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()
			ctx, cancel := cmdContext(cmd)
			defer cancel()

			if err := c.DeleteAnswer(ctx, id); err != nil {
				return err
			}
			fmt.Printf("Answer deleted: %s\n", id)
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "Answer ID (required)")
	_ = cmd.MarkFlagRequired("id")

	return cmd
}

func newHistoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "histories",
		Short: "List your query histories",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()
			ctx, cancel := cmdContext(cmd)
			defer cancel()

			hs, err := c.Histories(ctx)
			if err != nil {
				return err
			}
			if len(hs) == 0 {
				fmt.Println("No histories")
				return nil
			}
			for _, h := range hs {
				fmt.Printf("%s  %d queries\n", h.HistoryID, h.QueryNumber)
			}
			return nil
		},
	}
}

func newCreateHistoryCmd() *cobra.Command {
	var id string

	cmd := &cobra.Command{
		Use:   "create-history",
		Short: "Create a query history",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()
			ctx, cancel := cmdContext(cmd)
			defer cancel()

			h, err := c.CreateHistory(ctx, id)
			if err != nil {
				return err
			}
			dbg(h)
			fmt.Printf("History created: %s\n", h.HistoryID)
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "History ID (optional, generated when empty)")

	return cmd
}

func newAddQueryCmd() *cobra.Command {
	var historyID, queryID string

	cmd := &cobra.Command{
		Use:   "add-query",
		Short: "Append a query reference to a history",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()
			ctx, cancel := cmdContext(cmd)
			defer cancel()

			if err := c.AddQueryToHistory(ctx, historyID, queryID); err != nil {
				return err
			}
			fmt.Printf("Query %s added to history %s\n", queryID, historyID)
			return nil
		},
	}

	cmd.Flags().StringVar(&historyID, "history-id", "", "History ID (required)")
	cmd.Flags().StringVar(&queryID, "query-id", "", "Query ID (required)")
	_ = cmd.MarkFlagRequired("history-id")
	_ = cmd.MarkFlagRequired("query-id")

	return cmd
}

func newRemoveQueryCmd() *cobra.Command {
	var historyID, queryID string

	cmd := &cobra.Command{
		Use:   "remove-query",
		Short: "Remove a query reference from a history",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()
			ctx, cancel := cmdContext(cmd)
			defer cancel()

			if err := c.RemoveQueryFromHistory(ctx, historyID, queryID); err != nil {
				return err
			}
			fmt.Printf("Query %s removed from history %s\n", queryID, historyID)
			return nil
		},
	}

	cmd.Flags().StringVar(&historyID, "history-id", "", "History ID (required)")
	cmd.Flags().StringVar(&queryID, "query-id", "", "Query ID (required)")
	_ = cmd.MarkFlagRequired("history-id")
	_ = cmd.MarkFlagRequired("query-id")

	return cmd
}

func newDeleteHistoryCmd() *cobra.Command {
	var id string

	cmd := &cobra.Command{
		Use:   "delete-history",
		Short: "Delete a query history",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()
			ctx, cancel := cmdContext(cmd)
			defer cancel()

			if err := c.DeleteHistory(ctx, id); err != nil {
				return err
			}
			fmt.Printf("History deleted: %s\n", id)
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "History ID (required)")
	_ = cmd.MarkFlagRequired("id")

	return cmd
}

func newGetQueryCmd() *cobra.Command {
	var id string

	cmd := &cobra.Command{
		Use:   "get-query",
		Short: "Resolve a query reference",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()
			ctx, cancel := cmdContext(cmd)
			defer cancel()

			q, err := c.GetQuery(ctx, id)
			if err != nil {
				return err
			}
			dbg(q)
			fmt.Printf("Q: %s\nA: %s\n", q.Query, q.Response)
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "Query ID (required)")
	_ = cmd.MarkFlagRequired("id")

	return cmd
}
