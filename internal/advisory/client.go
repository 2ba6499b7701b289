package advisory

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// geminiClient calls the Gemini generateContent endpoint for advisory
// assessments.
type geminiClient struct {
	model   string
	apiKey  string
	baseURL string
	client  *resty.Client
}

func newGeminiClient(baseURL, model, apiKey string, timeout time.Duration) *geminiClient {
	client := resty.New()
	client.SetTimeout(timeout)
	client.SetRetryCount(2)
	client.SetRetryWaitTime(1 * time.Second)
	client.SetRetryMaxWaitTime(5 * time.Second)

	return &geminiClient{
		model:   model,
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  client,
	}
}

// generate sends the prompt and returns the first candidate's text.
func (c *geminiClient) generate(ctx context.Context, prompt string) (string, error) {
	request := map[string]interface{}{
		"contents": []map[string]interface{}{{
			"parts": []map[string]interface{}{{
				"text": prompt,
			}},
		}},
		"temperature": 0,
	}

	var result struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}

	response, err := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(request).
		SetResult(&result).
		Post(c.baseURL + "/models/" + c.model + ":generateContent?key=" + c.apiKey)

	if err != nil {
		return "", fmt.Errorf("advisory call failed: %w", err)
	}

	if response.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("advisory service returned HTTP %d", response.StatusCode())
	}

	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("advisory service returned no text")
	}

	return result.Candidates[0].Content.Parts[0].Text, nil
}
