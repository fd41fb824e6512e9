package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Pat-Reen/FitnessChat/pkg/ai"
	"github.com/Pat-Reen/FitnessChat/pkg/config"
	"github.com/Pat-Reen/FitnessChat/pkg/prompt"
	"github.com/Pat-Reen/FitnessChat/pkg/style"
	"github.com/Pat-Reen/FitnessChat/pkg/wizard"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check fitchat setup",
	Long:  `Verify the configured agent, its credentials, the catalog and prompt templates.`,
	RunE:  runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, args []string) error {
	fmt.Printf("%s Checking fitchat setup\n\n", style.C(style.Blue, "→"))

	allGood := true
	fail := func(format string, a ...any) {
		fmt.Printf("%s %s\n", style.Cross(), fmt.Sprintf(format, a...))
		allGood = false
	}
	ok := func(format string, a ...any) {
		fmt.Printf("%s %s\n", style.Check(), fmt.Sprintf(format, a...))
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	agent := agentFlag
	if agent == "" {
		agent = cfg.Agent
	}

	// Check 1: agent is known
	if ai.IsAgentSupported(agent) {
		ok("agent %s", style.C(style.Cyan, agent))
	} else if ai.IsCLIAgent(agent) {
		fail("agent %s: CLI not found in PATH", agent)
	} else {
		fail("agent %s is not supported", agent)
	}

	// Check 2: credential for that agent
	if env := ai.CredentialEnv(agent); env == "" {
		ok("no API key needed (CLI agent)")
	} else if err := ai.CheckCredential(agent); err != nil {
		fail("%s not set (required for %s)", env, agent)
	} else {
		ok("%s set", env)
	}

	// Check 3: mode
	if _, err := wizard.ParseMode(cfg.Mode); err != nil {
		fail("%v", err)
	} else {
		ok("mode %s", cfg.Mode)
	}

	// Check 4: catalog
	if cat, err := loadCatalog(cfg); err != nil {
		fail("catalog: %v", err)
	} else {
		ok("catalog: %d groups, %d exercises", len(cat.Groups()), cat.Len())
	}

	// Check 5: prompt templates
	if _, err := prompt.New(cfg.PromptsDir); err != nil {
		fail("prompts: %v", err)
	} else if cfg.PromptsDir != "" {
		ok("prompts from %s", cfg.PromptsDir)
	} else {
		ok("built-in prompts")
	}

	fmt.Println()

	// Other providers are optional
	fmt.Printf("%s Other credentials\n\n", style.C(style.Blue, "→"))
	for _, env := range []string{"ANTHROPIC_API_KEY", "GEMINI_API_KEY"} {
		if os.Getenv(env) != "" {
			fmt.Printf("%s %s set\n", style.Check(), env)
		} else {
			fmt.Printf("%s %s not set\n", style.C(style.Yellow, "○"), env)
		}
	}
	for _, cli := range []struct {
		name      string
		available bool
	}{
		{"claude", ai.IsClaudeCLIAvailable()},
		{"gemini", ai.IsGeminiCLIAvailable()},
	} {
		if cli.available {
			fmt.Printf("%s %s CLI available\n", style.Check(), cli.name)
		} else {
			fmt.Printf("%s %s CLI not found\n", style.C(style.Yellow, "○"), cli.name)
		}
	}

	fmt.Println()

	if !allGood {
		return fmt.Errorf("setup issues detected")
	}
	fmt.Printf("%s Setup OK\n", style.Check())
	return nil
}
