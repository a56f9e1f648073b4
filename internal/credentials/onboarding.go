package credentials

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

var providerChoices = []struct {
	key   string
	label string
	hint  string
}{
	{"openrouter", "OpenRouter", "https://openrouter.ai/keys"},
	{"openai", "OpenAI", "https://platform.openai.com/api-keys"},
	{"zai", "Z.AI", "https://z.ai"},
	{"gemini", "Gemini", "https://aistudio.google.com/apikey"},
}

// Onboard runs the interactive setup wizard: pick a provider, paste a key, save.
func Onboard(manager *Manager, in io.Reader, out io.Writer) (*Credentials, error) {
	reader := bufio.NewReader(in)
	creds, err := manager.Load()
	if err != nil {
		return nil, err
	}

	fmt.Fprintln(out, "Which AI provider should plan and evaluate goals?")
	for i, c := range providerChoices {
		fmt.Fprintf(out, "  %d) %s\n", i+1, c.label)
	}
	choice := promptWithDefault(reader, out, "Choice", "1")
	provider := ""
	for i, c := range providerChoices {
		if choice == fmt.Sprint(i+1) || strings.EqualFold(choice, c.key) {
			provider = c.key
			fmt.Fprintf(out, "Get a key at: %s\n", c.hint)
			break
		}
	}
	if provider == "" {
		return nil, fmt.Errorf("invalid choice: %s", choice)
	}

	var apiKey string
	for attempts := 0; attempts < 3 && apiKey == ""; attempts++ {
		apiKey = prompt(reader, out, fmt.Sprintf("Enter your %s API key", strings.ToUpper(provider)))
		if apiKey == "" {
			fmt.Fprintln(out, "API key cannot be empty. Please try again.")
		}
	}
	if apiKey == "" {
		return nil, fmt.Errorf("no API key entered")
	}

	creds.SetProvider(provider, apiKey)
	creds.DefaultProvider = provider
	if err := manager.Save(creds); err != nil {
		return nil, fmt.Errorf("save credentials: %w", err)
	}
	fmt.Fprintln(out, "API key saved to:", manager.Path())
	return creds, nil
}

func prompt(reader *bufio.Reader, out io.Writer, msg string) string {
	fmt.Fprintf(out, "%s: ", msg)
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}

func promptWithDefault(reader *bufio.Reader, out io.Writer, msg, defaultValue string) string {
	fmt.Fprintf(out, "%s [%s]: ", msg, defaultValue)
	line, _ := reader.ReadString('\n')
	line = strings.TrimSpace(line)
	if line == "" {
		return defaultValue
	}
	return line
}
