package recipes

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/rs/zerolog"
)

// recipePrompt instructs the model to return strictly the JSON schema
// the mobile clients consume, with no conversational filler.
const recipePrompt = "Please break down the ingredients in this image (e.g. 3 tomatoes, 2 cucumbers, " +
	"10 avocados, etc...) and generate a recipe that can be made with THESE ingredients. " +
	"It doesn't need to use every ingredient, but it should not use additional ingredients. " +
	"IMPORTANT: Each ingredient MUST include its amount (e.g., '2 cups Flour' instead of just 'Flour'). " +
	"If the image is unclear or you cannot identify specific items, make your absolute best guess based on the context of the image. " +
	"DO NOT apologize, DO NOT ask for clarification, and DO NOT output any conversational text. " +
	"Please return ONLY the recipe as a JSON array containing a single object with the exact following schema: " +
	`[{"Name": "string", "Steps": "stringified array of strings", "Time": integer, "Ingredients": "stringified array of strings"}].`

// MaxImageBytes is the largest accepted upload.
const MaxImageBytes = 10 * 1024 * 1024

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
}

var (
	ErrVisionNotConfigured  = errors.New("recipes: vision model is not configured")
	ErrUnsupportedImageType = errors.New("recipes: unsupported image type")
	ErrImageTooLarge        = errors.New("recipes: image exceeds size limit")
	ErrModelUnavailable     = errors.New("recipes: vision model request failed")
	ErrModelResponseInvalid = errors.New("recipes: vision model returned invalid recipe data")
)

// VisionConfig configures the vision extractor.
type VisionConfig struct {
	// APIKey authenticates against the model endpoint (required unless
	// BaseURL points at a local model).
	APIKey string

	// BaseURL overrides the OpenAI API endpoint.
	BaseURL string

	// Model is the chat model name (required).
	Model string

	Logger zerolog.Logger
}

// Vision turns fridge photos into recipe suggestions.
type Vision struct {
	model string
	log   zerolog.Logger

	// complete sends one prompt+image request and returns the raw
	// message content. Overridable in tests.
	complete func(ctx context.Context, prompt, imageDataURL string) (string, error)
}

// NewVision creates a Vision extractor.
func NewVision(config VisionConfig) (*Vision, error) {
	if config.Model == "" {
		return nil, ErrVisionNotConfigured
	}
	if config.APIKey == "" && config.BaseURL == "" {
		return nil, ErrVisionNotConfigured
	}

	opts := []option.RequestOption{option.WithAPIKey(config.APIKey)}
	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}
	client := openai.NewClient(opts...)

	v := &Vision{
		model: config.Model,
		log:   config.Logger,
	}
	v.complete = func(ctx context.Context, prompt, imageDataURL string) (string, error) {
		completion, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
			Model: openai.ChatModel(v.model),
			Messages: []openai.ChatCompletionMessageParamUnion{
				openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
					openai.TextContentPart(prompt),
					openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
						URL: imageDataURL,
					}),
				}),
			},
		})
		if err != nil {
			return "", err
		}
		if len(completion.Choices) == 0 {
			return "", fmt.Errorf("%w: empty response", ErrModelUnavailable)
		}
		return completion.Choices[0].Message.Content, nil
	}
	return v, nil
}

// ExtractFromImage sends the image to the vision model and parses the
// returned recipes.
func (v *Vision) ExtractFromImage(ctx context.Context, image []byte, contentType string) ([]Recipe, error) {
	if !allowedImageTypes[contentType] {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedImageType, contentType)
	}
	if len(image) > MaxImageBytes {
		return nil, fmt.Errorf("%w: %d bytes", ErrImageTooLarge, len(image))
	}

	dataURL := "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(image)

	raw, err := v.complete(ctx, recipePrompt, dataURL)
	if err != nil {
		if errors.Is(err, ErrModelUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	if raw == "" {
		return nil, fmt.Errorf("%w: empty message content", ErrModelUnavailable)
	}

	extracted, err := ParseRecipes(raw)
	if err != nil {
		v.log.Warn().Str("model", v.model).Msg("vision model returned unparseable content")
		return nil, err
	}
	return extracted, nil
}
