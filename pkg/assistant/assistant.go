package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"oasyspark/pkg/logging"
	"oasyspark/pkg/models"

	"google.golang.org/genai"
)

const (
	DefaultModel       = "gemini-3-flash-preview"
	DefaultTemperature = float32(0.7)

	MissingKeyMessage = "APIキーが設定されていません。環境変数をご確認ください。"
	EmptyMessage      = "申し訳ありません。現在応答できません。"
	ErrorMessage      = "AIサービスへの接続中にエラーが発生しました。しばらく待ってから再試行してください。"
)

// ErrNoCredential is returned by NewGemini when no API key is configured.
var ErrNoCredential = errors.New("assistant: no API key configured")

const persona = `
あなたは「OasysPark」の専属AIコンシェルジュです。
Oasysチェーンのエコシステム、ゲーム、トークン、NFTについて専門的な知識を持っています。
以下の情報を元に、ユーザーの質問に親切かつ簡潔に答えてください。
回答は常に日本語で行ってください。

【利用可能なゲームデータ】
%s

あなたの役割：
1. ユーザーの好みに合わせたゲームの推奨。
2. Oasysチェーンの特徴（ガス代無料、高速処理など）の説明。
3. Web3初心者へのウォレットやNFTの解説。

トーン＆マナー：
- フランクだが丁寧。
- ゲーマー向けのかっこいい口調（例：「了解しました」「こちらの装備（ゲーム）がおすすめです」など）。
- 絵文字を適度に使用。
`

// Generator produces a reply for prompt under a system instruction.
type Generator interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}

type catalogEntry struct {
	Title    string   `json:"title"`
	Category string   `json:"category"`
	Desc     string   `json:"desc"`
	Tags     []string `json:"tags"`
}

// SystemInstruction renders the persona with the game catalog embedded.
func SystemInstruction(games []models.Game) string {
	entries := make([]catalogEntry, 0, len(games))
	for _, g := range games {
		entries = append(entries, catalogEntry{Title: g.Title, Category: g.Category, Desc: g.Description, Tags: g.Tags})
	}
	data, err := json.Marshal(entries)
	if err != nil {
		data = []byte("[]")
	}
	return fmt.Sprintf(persona, data)
}

// Concierge answers free-text questions. A nil generator means the
// credential is missing.
type Concierge struct {
	gen    Generator
	system string
	log    *logging.Logger
}

func New(gen Generator, games []models.Game, logger *logging.Logger) *Concierge {
	return &Concierge{
		gen:    gen,
		system: SystemInstruction(games),
		log:    logging.OrDefault(logger).Component("assistant"),
	}
}

// Reply never fails; problems are reported as a user-facing message.
func (c *Concierge) Reply(ctx context.Context, prompt string) string {
	if c.gen == nil {
		return MissingKeyMessage
	}
	text, err := c.gen.Generate(ctx, c.system, prompt)
	if err != nil {
		c.log.Error("generate failed", "error", err)
		return ErrorMessage
	}
	if strings.TrimSpace(text) == "" {
		return EmptyMessage
	}
	return text
}

// Gemini is a Generator backed by the Gemini API.
type Gemini struct {
	client      *genai.Client
	model       string
	temperature float32
}

// NewGemini creates a Gemini generator. It returns ErrNoCredential when
// apiKey is empty.
func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	if apiKey == "" {
		return nil, ErrNoCredential
	}
	if model == "" {
		model = DefaultModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("assistant: create client: %w", err)
	}
	return &Gemini{client: client, model: model, temperature: DefaultTemperature}, nil
}

func (g *Gemini) Generate(ctx context.Context, system, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		Temperature:       genai.Ptr(g.temperature),
	})
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}
