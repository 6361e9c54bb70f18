package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Параметры Teams webhook.
const (
	teamsTimeout  = 10 * time.Second
	teamsSubtitle = "Daily procedure automation"

	colorSuccess = "00FF00"
	colorFailure = "FF0000"
)

// TeamsSink отправляет уведомления в Microsoft Teams через incoming webhook.
type TeamsSink struct {
	url    string
	client *http.Client
}

// NewTeamsSink создаёт TeamsSink.
func NewTeamsSink(url string) *TeamsSink {
	return &TeamsSink{
		url: url,
		client: &http.Client{
			Timeout: teamsTimeout,
		},
	}
}

// Name возвращает идентификатор sink.
func (s *TeamsSink) Name() string { return "teams" }

// messageCard — легаси-формат карточки Office 365 connector.
type messageCard struct {
	Type       string        `json:"@type"`
	Context    string        `json:"@context"`
	ThemeColor string        `json:"themeColor"`
	Summary    string        `json:"summary"`
	Sections   []cardSection `json:"sections"`
}

type cardSection struct {
	ActivityTitle    string     `json:"activityTitle"`
	ActivitySubtitle string     `json:"activitySubtitle"`
	Facts            []cardFact `json:"facts"`
	Markdown         bool       `json:"markdown"`
}

type cardFact struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

func newMessageCard(n Notification) messageCard {
	color := colorSuccess
	if !n.Success {
		color = colorFailure
	}
	return messageCard{
		Type:       "MessageCard",
		Context:    "http://schema.org/extensions",
		ThemeColor: color,
		Summary:    n.Title,
		Sections: []cardSection{{
			ActivityTitle:    n.Title,
			ActivitySubtitle: teamsSubtitle,
			Facts:            []cardFact{{Name: "Status", Value: n.Message}},
			Markdown:         true,
		}},
	}
}

// Send публикует MessageCard в webhook.
func (s *TeamsSink) Send(ctx context.Context, n Notification) error {
	body, err := json.Marshal(newMessageCard(n))
	if err != nil {
		return fmt.Errorf("marshal message card: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("teams webhook POST failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 400 {
		return fmt.Errorf("teams webhook returned status %d", resp.StatusCode)
	}
	return nil
}
