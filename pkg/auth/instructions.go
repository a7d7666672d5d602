package auth

import (
	"fmt"
	"strings"
)

// ShowTokenSetupGuide displays step-by-step instructions for creating
// GitHub personal access tokens.
func ShowTokenSetupGuide() {
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println("🔑 GITHUB TOKEN SETUP GUIDE")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println()

	fmt.Println("This tool needs one or more GitHub personal access tokens to query")
	fmt.Println("the API. Each token adds 5000 requests per hour to the pool.")
	fmt.Println()

	fmt.Println("🌐 STEP 1: Open the token settings page")
	fmt.Println("   - Go to https://github.com/settings/tokens")
	fmt.Println("   - Click 'Generate new token (classic)'")
	fmt.Println()

	fmt.Println("📋 STEP 2: Configure the token")
	fmt.Println("   - Give it a descriptive note, e.g. 'pr scraping'")
	fmt.Println("   - For public repositories no scopes are required")
	fmt.Println("   - For private repositories select the 'repo' scope")
	fmt.Println()

	fmt.Println("💾 STEP 3: Save the token")
	fmt.Println("   - Copy the generated value immediately; GitHub shows it only once")
	fmt.Println("   - Add it with: prscraper tokens add")
	fmt.Println("   - Or export PRSCRAPER_TOKENS=token1,token2 for one-off runs")
	fmt.Println()

	fmt.Println("💡 TIPS:")
	fmt.Println("   • Multiple tokens from different accounts multiply your rate limit")
	fmt.Println("   • The search API has its own, much smaller quota per token")
	fmt.Println()

	fmt.Println("⚠️  SECURITY WARNING:")
	fmt.Println("   • Tokens grant API access as your account")
	fmt.Println("   • NEVER commit them or share them with anyone")
	fmt.Println("   • Store them securely (this tool encrypts them)")
	fmt.Println()
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println()
}

// ShowQuickTokenGuide shows a condensed version for experienced users
func ShowQuickTokenGuide() {
	fmt.Println("\n🔑 Quick Guide: github.com/settings/tokens → Generate new token (classic)")
	fmt.Println("   Then: prscraper tokens add, or export PRSCRAPER_TOKENS=token1,token2")
	fmt.Println("   Type 'help' for detailed instructions")
}
