package notifier

import (
	"fmt"
	"os"

	"github.com/dghubble/go-twitter/twitter" //nolint:staticcheck // Using stable v1.1 API
	"github.com/dghubble/oauth1"

	"github.com/reedipher/teatime/internal/booking"
)

// TwitterNotifier posts booking outcomes as tweets
type TwitterNotifier struct {
	client *twitter.Client
}

// NewTwitterNotifier builds a Twitter notifier from environment variables:
// TWITTER_API_KEY, TWITTER_API_SECRET, TWITTER_ACCESS_TOKEN,
// TWITTER_ACCESS_SECRET.
func NewTwitterNotifier() (*TwitterNotifier, error) {
	apiKey := os.Getenv("TWITTER_API_KEY")
	apiSecret := os.Getenv("TWITTER_API_SECRET")
	accessToken := os.Getenv("TWITTER_ACCESS_TOKEN")
	accessSecret := os.Getenv("TWITTER_ACCESS_SECRET")

	if apiKey == "" || apiSecret == "" || accessToken == "" || accessSecret == "" {
		return nil, fmt.Errorf("missing required Twitter credentials in environment variables")
	}

	config := oauth1.NewConfig(apiKey, apiSecret)
	token := oauth1.NewToken(accessToken, accessSecret)
	httpClient := config.Client(oauth1.NoContext, token)

	return &TwitterNotifier{client: twitter.NewClient(httpClient)}, nil
}

// Notify tweets the outcome summary.
func (n *TwitterNotifier) Notify(outcome booking.Outcome) error {
	tweet := formatTweet(outcome)
	if _, _, err := n.client.Statuses.Update(tweet, nil); err != nil {
		return fmt.Errorf("posting tweet: %w", err)
	}
	return nil
}

// formatTweet renders the outcome within Twitter's 280 character limit.
func formatTweet(outcome booking.Outcome) string {
	tweet := Summarize(outcome) + "\n\n#golf #teetime"
	if len(tweet) > 280 {
		tweet = tweet[:277] + "..."
	}
	return tweet
}
