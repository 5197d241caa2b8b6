package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"hr-interview-bot/internal/questions"
)

var questionsCmd = &cobra.Command{
	Use:   "questions [track]",
	Short: "Print the question catalog (validates QUESTIONS_FILE)",
	Args:  cobra.MaximumNArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			log.Fatalf("loading config: %v", err)
		}
		catalog, err := loadCatalog(cfg)
		if err != nil {
			log.Fatalf("loading questions: %v", err)
		}

		tracks := catalog.Tracks()
		if len(args) == 1 {
			info, ok := catalog.Track(questions.Track(args[0]))
			if !ok {
				log.Fatalf("unknown track %q", args[0])
			}
			tracks = []questions.TrackInfo{info}
		}

		if viper.GetBool("json") {
			out := make(map[questions.Track][]questions.Question, len(tracks))
			for _, t := range tracks {
				out[t.ID] = catalog.QuestionsFor(t.ID)
			}
			if err := printJSON(out); err != nil {
				log.Fatal(err)
			}
			return
		}

		for _, t := range tracks {
			qs := catalog.QuestionsFor(t.ID)
			fmt.Printf("%s (%s): %d вопросов\n\n", t.Title, t.ID, len(qs))
			for i, q := range qs {
				fmt.Printf("%d. [%s] %s\n", i+1, q.Category, q.Text)
				for _, f := range q.FollowUps {
					fmt.Printf("   ↳ %s\n", f)
				}
				fmt.Println()
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(questionsCmd)
}
