// Command mcphost is a thin terminal harness over the core host: it loads
// configuration, spawns the configured tool servers, and drives one
// conversation loop by reading lines from stdin. The CLI's own rendering is
// intentionally minimal — a demonstration of the wiring, not a product.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"mcphost/config"
	"mcphost/convo"
	"mcphost/engine"
	"mcphost/llmclient"
	"mcphost/logger"
	"mcphost/secretmanager"
	"mcphost/supervisor"
)

var configPath string

func main() {
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:   "mcphost",
		Short: "Run an MCP host conversation loop against configured tool servers",
		RunE:  run,
	}
	root.Flags().StringVar(&configPath, "config", "mcphost.json", "path to the host configuration file")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	log := logger.Get()
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	hostCfg, err := config.LoadHostConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading host config: %w", err)
	}
	providerCfg := config.ResolveProviderConfig()
	secrets := config.BuildSecretManager()

	sup := supervisor.New(logger.Named(log, "supervisor"))
	defer sup.StopAll()

	for name, srv := range hostCfg.MCPServers {
		if err := sup.StartServer(ctx, name, srv.Command, srv.Args, srv.Env); err != nil {
			log.Error().Err(err).Str("server", name).Msg("failed to start tool server")
			continue
		}
		log.Info().Str("server", name).Msg("tool server started")
	}

	client := buildClient(providerCfg, secrets)
	eng := engine.New(sup, client, logger.Named(log, "engine"))

	state := convo.New()
	state.AddSystemMessage(systemPrompt(ctx, sup))

	fmt.Println("mcphost ready. Type a message, or 'quit' to exit.")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "quit" {
			break
		}
		if line == "" {
			continue
		}

		state.AddUserMessage(line)
		reply, err := replyFor(ctx, client, state)
		if err != nil {
			log.Error().Err(err).Msg("LM request failed")
			continue
		}

		serverName := firstServerName(hostCfg)
		final, err := eng.HandleAssistantResponse(ctx, serverName, state, reply, func(s string) {
			fmt.Println(convo.FormatHeading(convo.RoleAssistant))
			fmt.Println(s)
		})
		if err != nil {
			log.Error().Err(err).Msg("iteration engine terminated with an error")
			continue
		}
		fmt.Println(convo.FormatHeading(convo.RoleAssistant))
		fmt.Println(final)
	}

	return nil
}

func buildClient(cfg config.ProviderConfig, secrets secretmanager.SecretManager) llmclient.Client {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		return llmclient.NewOpenAIClient(cfg.Model, secrets)
	case config.ProviderOpenAIResponses:
		return llmclient.NewOpenAIResponsesClient(cfg.Model, secrets)
	default:
		return llmclient.NewAnthropicClient(cfg.Model, secrets)
	}
}

func replyFor(ctx context.Context, client llmclient.Client, state *convo.State) (string, error) {
	builder := client.Builder()
	for _, m := range state.Messages() {
		switch m.Role {
		case convo.RoleSystem:
			builder = builder.System(m.Content)
		case convo.RoleUser:
			builder = builder.User(m.Content)
		case convo.RoleAssistant:
			builder = builder.Assistant(m.Content)
		}
	}
	return builder.Execute(ctx)
}

func firstServerName(cfg *config.HostConfig) string {
	for name := range cfg.MCPServers {
		return name
	}
	return ""
}

func systemPrompt(ctx context.Context, sup *supervisor.Supervisor) string {
	var b strings.Builder
	b.WriteString("You are an assistant with access to tool servers. ")
	b.WriteString("When you need a tool, describe the call like: Let me call `tool_name`:\n```json\n{...}\n```\n")
	for _, name := range sup.Names() {
		tools, err := sup.ListServerTools(ctx, name)
		if err != nil {
			continue
		}
		for _, t := range tools {
			b.WriteString(fmt.Sprintf("- %s (%s): %s", t.Name, name, t.Description))
			if props := t.PropertyNames(); len(props) > 0 {
				b.WriteString(fmt.Sprintf(" [args: %s]", strings.Join(props, ", ")))
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}
