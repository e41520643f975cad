package speech

import (
	"context"
	"fmt"

	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	"cloud.google.com/go/texttospeech/apiv1/texttospeechpb"
	"google.golang.org/api/option"

	"booktalk/internal/config"
)

// Google synthesizes speech with Cloud Text-to-Speech using a neutral voice.
type Google struct {
	client   *texttospeech.Client
	language string
	encoding Encoding
}

// NewGoogle creates the TTS client. Credentials come from cfg.CredentialsFile when set,
// otherwise from Application Default Credentials.
func NewGoogle(ctx context.Context, cfg config.SpeechConfig) (*Google, error) {
	enc, err := ParseEncoding(cfg.Encoding)
	if err != nil {
		return nil, err
	}
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	cli, err := texttospeech.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create texttospeech client: %w", err)
	}
	lang := cfg.LanguageCode
	if lang == "" {
		lang = "en-US"
	}
	return &Google{client: cli, language: lang, encoding: enc}, nil
}

var _ Synthesizer = (*Google)(nil)

func (g *Google) Encoding() Encoding { return g.encoding }

func (g *Google) Synthesize(ctx context.Context, text string) ([]byte, error) {
	audioEncoding := texttospeechpb.AudioEncoding_MP3
	if g.encoding == EncodingWAV {
		audioEncoding = texttospeechpb.AudioEncoding_LINEAR16
	}
	resp, err := g.client.SynthesizeSpeech(ctx, &texttospeechpb.SynthesizeSpeechRequest{
		Input: &texttospeechpb.SynthesisInput{
			InputSource: &texttospeechpb.SynthesisInput_Text{Text: text},
		},
		Voice: &texttospeechpb.VoiceSelectionParams{
			LanguageCode: g.language,
			SsmlGender:   texttospeechpb.SsmlVoiceGender_NEUTRAL,
		},
		AudioConfig: &texttospeechpb.AudioConfig{
			AudioEncoding: audioEncoding,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("synthesize speech: %w", err)
	}
	return resp.GetAudioContent(), nil
}

// Close releases the underlying gRPC connection.
func (g *Google) Close() error {
	return g.client.Close()
}
