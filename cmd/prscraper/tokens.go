package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"prscraper/pkg/auth"
)

// tokensCmd represents the tokens command
var tokensCmd = &cobra.Command{
	Use:   "tokens",
	Short: "Manage GitHub API tokens",
	Long: `Manage stored GitHub API tokens securely.

Tokens are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - Environment variables (PRSCRAPER_TOKENS)

Every token in a set adds 5000 core requests per hour to the pool.
Never share your tokens or config files!`,
}

// tokensAddCmd represents the tokens add command
var tokensAddCmd = &cobra.Command{
	Use:   "add [label]",
	Short: "Store a set of GitHub tokens securely",
	Long: `Store a set of GitHub personal access tokens in the system keychain
or an encrypted file.

You will be prompted for the tokens one per line; finish with an empty
line. Tokens are hidden as you type.`,
	Example: `  # Interactive token entry under the default label
  prscraper tokens add

  # Store a named set
  prscraper tokens add work`,
	Args: cobra.MaximumNArgs(1),
	Run:  runTokensAdd,
}

// tokensListCmd represents the tokens list command
var tokensListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all stored token sets",
	Long:  `List all stored token sets with sanitized token values.`,
	Run:   runTokensList,
}

// tokensRemoveCmd represents the tokens remove command
var tokensRemoveCmd = &cobra.Command{
	Use:   "remove [label]",
	Short: "Remove a stored token set",
	Long: `Remove a stored token set.

If no label is provided, you will be shown a list of stored sets to
choose from.`,
	Args: cobra.MaximumNArgs(1),
	Run:  runTokensRemove,
}

// tokensGuideCmd represents the tokens guide command
var tokensGuideCmd = &cobra.Command{
	Use:   "guide",
	Short: "Show how to create GitHub personal access tokens",
	Run: func(cmd *cobra.Command, args []string) {
		auth.ShowTokenSetupGuide()
	},
}

func init() {
	rootCmd.AddCommand(tokensCmd)
	tokensCmd.AddCommand(tokensAddCmd)
	tokensCmd.AddCommand(tokensListCmd)
	tokensCmd.AddCommand(tokensRemoveCmd)
	tokensCmd.AddCommand(tokensGuideCmd)
}

func runTokensAdd(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to initialize token manager:", err)
		os.Exit(1)
	}

	label := "default"
	if len(args) > 0 {
		label = args[0]
	}

	reader := bufio.NewReader(os.Stdin)

	auth.ShowQuickTokenGuide()
	fmt.Println()

	// Check if the set already exists
	if existing, _ := manager.Retrieve(label); existing != nil {
		fmt.Printf("⚠️  Token set '%s' already exists with %d tokens. Replace it? (y/N): ", label, len(existing.Tokens))
		input, _ := reader.ReadString('\n')
		if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(input)), "y") {
			return
		}
	}

	fmt.Println("🔐 Enter your tokens one per line (hidden as you type).")
	fmt.Println("   Finish with an empty line.")
	fmt.Println()

	var tokens []string
	for {
		fmt.Printf("token %d: ", len(tokens)+1)
		token, err := readSecret()
		if err != nil {
			fmt.Fprintln(os.Stderr, "failed to read token:", err)
			os.Exit(1)
		}
		token = strings.TrimSpace(token)
		if token == "" {
			break
		}

		if len(token) < 20 {
			fmt.Println("\n❌ That doesn't look like a valid token.")
			fmt.Println("   Classic tokens start with ghp_ and fine-grained ones with github_pat_.")
			continue
		}
		tokens = append(tokens, token)
	}

	if len(tokens) == 0 {
		fmt.Fprintln(os.Stderr, "no tokens entered")
		os.Exit(1)
	}

	set := &auth.TokenSet{
		Label:        label,
		Tokens:       tokens,
		LastModified: time.Now(),
	}

	fmt.Println("\n💾 Storing tokens securely...")
	if err := manager.Store(set); err != nil {
		fmt.Fprintln(os.Stderr, "failed to store tokens:", err)
		os.Exit(1)
	}

	sanitized := auth.SanitizeTokens(set)
	fmt.Printf("\n🎉 Stored %d tokens under '%s':\n", len(sanitized.Tokens), sanitized.Label)
	for _, token := range sanitized.Tokens {
		fmt.Printf("   %s\n", token)
	}

	fmt.Println("\n📖 Quick Start:")
	fmt.Println("   Fetch every pull of a repository:")
	fmt.Println("   $ prscraper scrape django/django")
	if label != "default" {
		fmt.Printf("\n   Use this set explicitly:\n")
		fmt.Printf("   $ prscraper scrape django/django --tokens %s\n", label)
	}
	fmt.Println("\n⚠️  Never share your tokens or config files!")
}

func runTokensList(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to initialize token manager:", err)
		os.Exit(1)
	}

	sets, err := manager.List()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to list token sets:", err)
		os.Exit(1)
	}

	if len(sets) == 0 {
		fmt.Println("No stored token sets. Use 'prscraper tokens add' to add one.")
		return
	}

	fmt.Println("Stored token sets:")
	fmt.Println()
	for i, set := range sets {
		sanitized := auth.SanitizeTokens(set)
		fmt.Printf("%d. Label: %s\n", i+1, sanitized.Label)
		for _, token := range sanitized.Tokens {
			fmt.Printf("   Token: %s\n", token)
		}
		fmt.Printf("   Last Modified: %s\n", sanitized.LastModified.Format("2006-01-02 15:04:05"))
		fmt.Println()
	}
}

func runTokensRemove(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to initialize token manager:", err)
		os.Exit(1)
	}

	if len(args) > 0 {
		label := args[0]
		if err := manager.Delete(label); err != nil {
			fmt.Fprintln(os.Stderr, "failed to remove token set:", err)
			os.Exit(1)
		}
		fmt.Println("Token set removed:", label)
		return
	}

	sets, err := manager.List()
	if err != nil || len(sets) == 0 {
		fmt.Fprintln(os.Stderr, "no stored token sets found")
		return
	}

	reader := bufio.NewReader(os.Stdin)

	if len(sets) == 1 {
		set := sets[0]
		fmt.Printf("Remove token set '%s'? (y/N): ", set.Label)
		input, _ := reader.ReadString('\n')
		if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(input)), "y") {
			return
		}
		if err := manager.Delete(set.Label); err != nil {
			fmt.Fprintln(os.Stderr, "failed to remove token set:", err)
			os.Exit(1)
		}
		fmt.Println("Token set removed:", set.Label)
		return
	}

	fmt.Println("Select token set to remove:")
	for i, set := range sets {
		fmt.Printf("  %d. %s (%d tokens)\n", i+1, set.Label, len(set.Tokens))
	}
	fmt.Printf("  0. Cancel\n\n")

	fmt.Print("Choice: ")
	input, _ := reader.ReadString('\n')

	var choice int
	fmt.Sscanf(strings.TrimSpace(input), "%d", &choice)

	if choice < 1 || choice > len(sets) {
		return
	}

	set := sets[choice-1]
	if err := manager.Delete(set.Label); err != nil {
		fmt.Fprintln(os.Stderr, "failed to remove token set:", err)
		os.Exit(1)
	}
	fmt.Println("Token set removed:", set.Label)
}

// readSecret reads a value from stdin without echoing
func readSecret() (string, error) {
	// Try to read without echo
	if term.IsTerminal(int(syscall.Stdin)) {
		secret, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println() // New line after input
		if err == nil {
			return string(secret), nil
		}
	}

	// Fallback to regular input
	reader := bufio.NewReader(os.Stdin)
	input, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(input), nil
}
