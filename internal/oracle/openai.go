package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"regexp"

	"github.com/schoemantian/pokemon-agent/internal/battle"
	"github.com/schoemantian/pokemon-agent/internal/constants"
	"github.com/schoemantian/pokemon-agent/internal/logging"
)

// toolSchema is the function-call schema offered to the model. The
// model must answer with exactly one of these calls.
var toolSchema = []map[string]interface{}{
	{
		"type": "function",
		"function": map[string]interface{}{
			"name":        "choose_move",
			"description": "Choose a move for your Pokémon to use",
			"parameters": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"move_name": map[string]interface{}{
						"type":        "string",
						"description": "The name of the move to use. Must be one of the available moves.",
					},
				},
				"required": []string{"move_name"},
			},
		},
	},
	{
		"type": "function",
		"function": map[string]interface{}{
			"name":        "choose_switch",
			"description": "Switch your active Pokémon with one from your team",
			"parameters": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"pokemon_name": map[string]interface{}{
						"type":        "string",
						"description": "The name of the Pokémon to switch to. Must be one of the available Pokémon.",
					},
				},
				"required": []string{"pokemon_name"},
			},
		},
	},
}

// OpenAIAdvisor consults the OpenAI chat completions API with the
// battle tool schema. The HTTP call carries no client timeout of its
// own: the caller's context deadline is the only bound.
type OpenAIAdvisor struct {
	model  string
	client *http.Client
}

// NewOpenAIAdvisor returns an advisor for the given model, defaulting
// to the configured chat model.
func NewOpenAIAdvisor(model string) *OpenAIAdvisor {
	if model == "" {
		model = constants.OpenAIChatModel
	}
	return &OpenAIAdvisor{model: model, client: &http.Client{}}
}

func (o *OpenAIAdvisor) Name() string { return "openai" }

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content   string `json:"content"`
			ToolCalls []struct {
				Function struct {
					Name      string `json:"name"`
					Arguments string `json:"arguments"`
				} `json:"function"`
			} `json:"tool_calls"`
		} `json:"message"`
	} `json:"choices"`
}

// Advise sends the request to the chat completions endpoint and parses
// the tool call out of the answer.
func (o *OpenAIAdvisor) Advise(ctx context.Context, req *Request) (*Decision, error) {
	apiKey := os.Getenv(constants.EnvOpenAIAPIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("%w: %s not set", ErrUnavailable, constants.EnvOpenAIAPIKey)
	}

	payload := map[string]interface{}{
		"model": o.model,
		"tools": toolSchema,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": userPrompt(req)},
		},
	}
	body, _ := json.Marshal(payload)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		constants.OpenAIBaseURL+constants.OpenAIChatCompletionsPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	httpReq.Header.Set(constants.HeaderAuthorization, constants.BearerPrefix+apiKey)
	httpReq.Header.Set(constants.HeaderContentType, constants.ContentTypeJSON)

	resp, err := o.client.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		logging.Warn("oracle request rejected", logging.Fields{
			"status": resp.StatusCode, constants.LogFieldBattleTag: req.BattleTag,
		})
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return nil, fmt.Errorf("%w: status %d %s", ErrUnavailable, resp.StatusCode, string(raw))
		}
		return nil, fmt.Errorf("%w: status %d %s", ErrInvalidResponse, resp.StatusCode, string(raw))
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrInvalidResponse, err)
	}
	if len(out.Choices) == 0 {
		return nil, fmt.Errorf("%w: empty choices", ErrInvalidResponse)
	}

	msg := out.Choices[0].Message
	if len(msg.ToolCalls) > 0 {
		call := msg.ToolCalls[0].Function
		var args struct {
			MoveName    string `json:"move_name"`
			PokemonName string `json:"pokemon_name"`
		}
		if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
			return nil, fmt.Errorf("%w: tool arguments: %v", ErrInvalidResponse, err)
		}
		return decisionFromCall(call.Name, args.MoveName, args.PokemonName)
	}

	// Some models answer in prose with an embedded JSON block instead
	// of a tool call; accept that as a fallback parse.
	if d := extractFunctionCall(msg.Content); d != nil {
		return d, nil
	}
	return nil, fmt.Errorf("%w: no tool call in response", ErrInvalidResponse)
}

func decisionFromCall(name, moveName, pokemonName string) (*Decision, error) {
	switch name {
	case "choose_move":
		if moveName == "" {
			return nil, fmt.Errorf("%w: choose_move without move_name", ErrInvalidResponse)
		}
		return &Decision{Kind: battle.ActionAttack, Name: moveName}, nil
	case "choose_switch":
		if pokemonName == "" {
			return nil, fmt.Errorf("%w: choose_switch without pokemon_name", ErrInvalidResponse)
		}
		return &Decision{Kind: battle.ActionSwitch, Name: pokemonName}, nil
	default:
		return nil, fmt.Errorf("%w: unknown function %q", ErrInvalidResponse, name)
	}
}

var functionCallPattern = regexp.MustCompile("(?s)```json\\s*\\{\\s*\"name\"\\s*:\\s*\"([^\"]+)\"\\s*,\\s*\"arguments\"\\s*:\\s*(\\{[^}]+\\})\\s*\\}\\s*```")

// extractFunctionCall pulls a function-call JSON block out of prose
// content. Returns nil when nothing parseable is present.
func extractFunctionCall(content string) *Decision {
	m := functionCallPattern.FindStringSubmatch(content)
	if m == nil {
		return nil
	}
	var args struct {
		MoveName    string `json:"move_name"`
		PokemonName string `json:"pokemon_name"`
	}
	if err := json.Unmarshal([]byte(m[2]), &args); err != nil {
		return nil
	}
	d, err := decisionFromCall(m[1], args.MoveName, args.PokemonName)
	if err != nil {
		return nil
	}
	return d
}
