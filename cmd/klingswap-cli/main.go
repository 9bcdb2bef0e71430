// klingswap-cli is a command-line client for interacting with a klingswapd node.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"syscall"

	"github.com/Klingon-tech/klingswap/config"
	"github.com/Klingon-tech/klingswap/internal/exchange"
	"github.com/Klingon-tech/klingswap/internal/keystore"
	"github.com/Klingon-tech/klingswap/internal/ledger"
	"github.com/Klingon-tech/klingswap/internal/rpc"
	"github.com/Klingon-tech/klingswap/internal/rpcclient"
	"github.com/Klingon-tech/klingswap/pkg/crypto"
	"github.com/Klingon-tech/klingswap/pkg/types"
	"golang.org/x/term"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	// Parse global flags that appear before the subcommand.
	rpcURL := ""
	dataDir := config.DefaultDataDir()
	network := "mainnet"

	args := os.Args[1:]
	for len(args) > 0 {
		switch {
		case args[0] == "--rpc" && len(args) > 1:
			rpcURL = args[1]
			args = args[2:]
		case strings.HasPrefix(args[0], "--rpc="):
			rpcURL = args[0][len("--rpc="):]
			args = args[1:]
		case args[0] == "--datadir" && len(args) > 1:
			dataDir = args[1]
			args = args[2:]
		case strings.HasPrefix(args[0], "--datadir="):
			dataDir = args[0][len("--datadir="):]
			args = args[1:]
		case args[0] == "--network" && len(args) > 1:
			network = args[1]
			args = args[2:]
		case strings.HasPrefix(args[0], "--network="):
			network = args[0][len("--network="):]
			args = args[1:]
		case args[0] == "--testnet":
			network = "testnet"
			args = args[1:]
		default:
			goto dispatch
		}
	}

dispatch:
	net := config.Mainnet
	if network == "testnet" {
		net = config.Testnet
		types.SetAddressHRP(types.TestnetHRP)
	} else {
		types.SetAddressHRP(types.MainnetHRP)
	}
	if rpcURL == "" {
		rpcURL = config.DefaultRPCEndpoint(net)
	}

	if len(args) == 0 {
		usage()
		os.Exit(1)
	}

	cfg := config.Default(net)
	cfg.DataDir = dataDir
	ksDir := cfg.KeystoreDir()
	client := rpcclient.New(rpcURL)
	cmd := args[0]
	cmdArgs := args[1:]

	switch cmd {
	case "info":
		cmdInfo(client)
	case "quote":
		cmdQuote(client, cmdArgs)
	case "swap":
		cmdSwap(client, cmdArgs, ksDir)
	case "fees":
		cmdFees(client, cmdArgs, ksDir)
	case "liquidity":
		cmdLiquidity(client, cmdArgs, ksDir)
	case "stake":
		cmdStake(client, cmdArgs, ksDir)
	case "balance":
		cmdBalance(client, cmdArgs)
	case "transfer":
		cmdTransfer(client, cmdArgs, ksDir)
	case "invariants":
		cmdInvariants(client)
	case "key":
		cmdKey(cmdArgs, ksDir)
	case "help", "--help", "-h":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: klingswap-cli [global flags] <command> [flags]

Global flags:
  --rpc <url>         RPC endpoint (default: http://127.0.0.1:8555, testnet :8655)
  --datadir <path>    Data directory (default: ~/.klingswap)
  --network <net>     mainnet (default) or testnet
  --testnet           Shorthand for --network testnet

Commands:
  info                            Show exchange parameters and pools
  quote buy <amt>                 Price a KGX -> KSW swap
  quote sell <amt>                Price a KSW -> KGX swap
  swap buy --key <k> --amount <amt>
                                  Swap KGX for KSW
  swap sell --key <k> --amount <amt>
                                  Swap KSW for KGX
  fees claim --key <k>            Withdraw the fee vault (admin)
  liquidity deposit --key <k> --amount <amt>
                                  Add KGX to the liquidity pool (admin)

  stake info                      Show the stake vault
  stake list <address>            List stake tickets of an address
  stake create --key <k> --amount <amt>
                                  Lock KGX and receive a ticket
  stake redeem --key <k> --ticket <id>
                                  Redeem a ticket

  balance <address>               Show account balances
  transfer --key <k> --to <addr> --amount <amt> [--denom native|token]
                                  Move coins to another account
  invariants                      Run the ledger's conservation checks

  key create --name <n>           Create a new key
  key import --name <n> --mnemonic "..." [--account <a>] [--index <i>]
                                  Import a key from a mnemonic
  key list                        List keys
  key address --name <n>          Show the address of a key

Signed commands accept --nonce <n>; by default the next nonce is fetched.
`)
}

// ── info / quote ────────────────────────────────────────────────────────

func cmdInfo(client *rpcclient.Client) {
	var info rpc.ExchangeInfoResult
	if err := client.Call(rpc.MethodExchangeGetInfo, nil, &info); err != nil {
		fatal("exchange_getInfo: %v", err)
	}

	fmt.Printf("Chain:         %s\n", info.ChainID)
	fmt.Printf("Exchange:      %s\n", info.ID)
	fmt.Printf("Admin:         %s\n", info.Admin)
	fmt.Printf("Fee:           %d bps\n", info.Params.FeeBasisPoints)
	fmt.Printf("Price:         %s %s buys %s %s (rate %d)\n",
		formatAmount(info.Params.PriceInAsset), info.Symbol,
		formatAmount(info.Params.AmountOfToken), info.TokenSymbol, info.Rate)
	fmt.Printf("Liquidity:     %s %s\n", formatAmount(info.Liquidity), info.Symbol)
	fmt.Printf("Fee vault:     %s %s\n", formatAmount(info.FeeVault), info.Symbol)
	fmt.Printf("Token supply:  %s %s\n", formatAmount(info.TokenSupply), info.TokenSymbol)
}

func cmdQuote(client *rpcclient.Client, args []string) {
	if len(args) < 2 {
		fatal("Usage: klingswap-cli quote <buy|sell> <amount>")
	}
	amount, err := parseAmount(args[1])
	if err != nil {
		fatal("invalid amount: %v", err)
	}

	switch args[0] {
	case "buy":
		var q exchange.AssetQuote
		if err := client.Call(rpc.MethodQuoteAssetForToken, rpc.AmountParam{Amount: amount}, &q); err != nil {
			fatal("quote: %v", err)
		}
		printAssetQuote(&q)
	case "sell":
		var q exchange.TokenQuote
		if err := client.Call(rpc.MethodQuoteTokenForAsset, rpc.AmountParam{Amount: amount}, &q); err != nil {
			fatal("quote: %v", err)
		}
		printTokenQuote(&q)
	default:
		fatal("Unknown quote side: %s (want buy or sell)", args[0])
	}
}

func printAssetQuote(q *exchange.AssetQuote) {
	fmt.Printf("  Pay:       %s KGX\n", formatAmount(q.AmountIn))
	fmt.Printf("  Fee:       %s KGX\n", formatAmount(q.Fee))
	fmt.Printf("  Receive:   %s KSW\n", formatAmount(q.TokenOut))
}

func printTokenQuote(q *exchange.TokenQuote) {
	fmt.Printf("  Pay:       %s KSW\n", formatAmount(q.AmountIn))
	fmt.Printf("  Gross:     %s KGX\n", formatAmount(q.Gross))
	fmt.Printf("  Fee:       %s KGX\n", formatAmount(q.Fee))
	fmt.Printf("  Receive:   %s KGX\n", formatAmount(q.Net))
}

// ── swap / fees / liquidity ─────────────────────────────────────────────

func cmdSwap(client *rpcclient.Client, args []string, ksDir string) {
	if len(args) < 1 || (args[0] != "buy" && args[0] != "sell") {
		fatal("Usage: klingswap-cli swap <buy|sell> --key <k> --amount <amt>")
	}
	side := args[0]

	fs := flag.NewFlagSet("swap "+side, flag.ExitOnError)
	keyName := fs.String("key", "", "Key name")
	amountStr := fs.String("amount", "", "Amount to pay")
	nonce := fs.Uint64("nonce", 0, "Nonce (default: next)")
	fs.Parse(args[1:])

	if *keyName == "" || *amountStr == "" {
		fatal("Usage: klingswap-cli swap %s --key <k> --amount <amt>", side)
	}
	amount, err := parseAmount(*amountStr)
	if err != nil {
		fatal("invalid amount: %v", err)
	}

	key := unlockKey(ksDir, *keyName)
	defer key.Zero()
	payload := rpc.AmountPayload{Amount: amount}

	if side == "buy" {
		var q exchange.AssetQuote
		signedCall(client, rpc.MethodSwapAssetForToken, payload, key, *nonce, &q)
		fmt.Println("Swap complete!")
		printAssetQuote(&q)
		return
	}
	var q exchange.TokenQuote
	signedCall(client, rpc.MethodSwapTokenForAsset, payload, key, *nonce, &q)
	fmt.Println("Swap complete!")
	printTokenQuote(&q)
}

func cmdFees(client *rpcclient.Client, args []string, ksDir string) {
	if len(args) < 1 || args[0] != "claim" {
		fatal("Usage: klingswap-cli fees claim --key <k>")
	}
	fs := flag.NewFlagSet("fees claim", flag.ExitOnError)
	keyName := fs.String("key", "", "Admin key name")
	nonce := fs.Uint64("nonce", 0, "Nonce (default: next)")
	fs.Parse(args[1:])

	if *keyName == "" {
		fatal("Usage: klingswap-cli fees claim --key <k>")
	}

	key := unlockKey(ksDir, *keyName)
	defer key.Zero()

	var result rpc.ClaimResult
	signedCall(client, rpc.MethodClaimFees, rpc.EmptyPayload{}, key, *nonce, &result)
	fmt.Printf("Claimed %s KGX\n", formatAmount(result.Claimed))
}

func cmdLiquidity(client *rpcclient.Client, args []string, ksDir string) {
	if len(args) < 1 || args[0] != "deposit" {
		fatal("Usage: klingswap-cli liquidity deposit --key <k> --amount <amt>")
	}
	fs := flag.NewFlagSet("liquidity deposit", flag.ExitOnError)
	keyName := fs.String("key", "", "Admin key name")
	amountStr := fs.String("amount", "", "Amount of KGX")
	nonce := fs.Uint64("nonce", 0, "Nonce (default: next)")
	fs.Parse(args[1:])

	if *keyName == "" || *amountStr == "" {
		fatal("Usage: klingswap-cli liquidity deposit --key <k> --amount <amt>")
	}
	amount, err := parseAmount(*amountStr)
	if err != nil {
		fatal("invalid amount: %v", err)
	}

	key := unlockKey(ksDir, *keyName)
	defer key.Zero()

	var result rpc.DepositResult
	signedCall(client, rpc.MethodDepositLiquidity, rpc.AmountPayload{Amount: amount}, key, *nonce, &result)
	fmt.Printf("Deposited %s KGX, pool now %s KGX\n", formatAmount(amount), formatAmount(result.Liquidity))
}

// ── stake ───────────────────────────────────────────────────────────────

func cmdStake(client *rpcclient.Client, args []string, ksDir string) {
	if len(args) < 1 {
		fatal("Usage: klingswap-cli stake <info|list|create|redeem> [flags]")
	}

	switch args[0] {
	case "info":
		var info ledger.StakeInfo
		if err := client.Call(rpc.MethodStakeGetInfo, nil, &info); err != nil {
			fatal("stake_getInfo: %v", err)
		}
		fmt.Printf("Stake ledger:  %s\n", info.ID)
		fmt.Printf("Vault:         %s KGX\n", formatAmount(info.Vault))
		fmt.Printf("Outstanding:   %d tickets\n", info.Outstanding)
	case "list":
		if len(args) < 2 {
			fatal("Usage: klingswap-cli stake list <address>")
		}
		var result rpc.TicketsResult
		if err := client.Call(rpc.MethodGetTickets, rpc.AddressParam{Address: args[1]}, &result); err != nil {
			fatal("stake_getTickets: %v", err)
		}
		if len(result.Tickets) == 0 {
			fmt.Println("No tickets.")
			return
		}
		for _, t := range result.Tickets {
			fmt.Printf("  %s  %s KGX\n", t.ID, formatAmount(t.Amount))
		}
	case "create":
		cmdStakeCreate(client, args[1:], ksDir)
	case "redeem":
		cmdStakeRedeem(client, args[1:], ksDir)
	default:
		fatal("Unknown stake command: %s\nUsage: klingswap-cli stake <info|list|create|redeem> [flags]", args[0])
	}
}

func cmdStakeCreate(client *rpcclient.Client, args []string, ksDir string) {
	fs := flag.NewFlagSet("stake create", flag.ExitOnError)
	keyName := fs.String("key", "", "Key name")
	amountStr := fs.String("amount", "", "Stake amount (e.g. 10)")
	nonce := fs.Uint64("nonce", 0, "Nonce (default: next)")
	fs.Parse(args)

	if *keyName == "" || *amountStr == "" {
		fatal("Usage: klingswap-cli stake create --key <k> --amount <amt>")
	}
	amount, err := parseAmount(*amountStr)
	if err != nil {
		fatal("invalid amount: %v", err)
	}

	key := unlockKey(ksDir, *keyName)
	defer key.Zero()

	var result rpc.TicketResult
	signedCall(client, rpc.MethodStake, rpc.AmountPayload{Amount: amount}, key, *nonce, &result)
	fmt.Println("Stake locked!")
	fmt.Printf("  Ticket:  %s\n", result.ID)
	fmt.Printf("  Amount:  %s KGX\n", formatAmount(result.Amount))
	fmt.Println("\nKeep the ticket id; it is required to redeem the stake.")
}

func cmdStakeRedeem(client *rpcclient.Client, args []string, ksDir string) {
	fs := flag.NewFlagSet("stake redeem", flag.ExitOnError)
	keyName := fs.String("key", "", "Key name")
	ticket := fs.String("ticket", "", "Ticket id (hex)")
	nonce := fs.Uint64("nonce", 0, "Nonce (default: next)")
	fs.Parse(args)

	if *keyName == "" || *ticket == "" {
		fatal("Usage: klingswap-cli stake redeem --key <k> --ticket <id>")
	}

	key := unlockKey(ksDir, *keyName)
	defer key.Zero()

	var result rpc.UnstakeResult
	signedCall(client, rpc.MethodUnstake, rpc.UnstakePayload{TicketID: *ticket}, key, *nonce, &result)
	fmt.Printf("Redeemed %s KGX\n", formatAmount(result.Amount))
}

// ── accounts ────────────────────────────────────────────────────────────

func cmdBalance(client *rpcclient.Client, args []string) {
	if len(args) < 1 {
		fatal("Usage: klingswap-cli balance <address>")
	}
	addr, err := types.ParseAddress(args[0])
	if err != nil {
		fatal("invalid address: %v", err)
	}
	bal, err := client.Balance(addr)
	if err != nil {
		fatal("account_getBalance: %v", err)
	}

	fmt.Printf("Address:  %s\n", bal.Address)
	fmt.Printf("KGX:      %s\n", formatAmount(bal.Native))
	fmt.Printf("KSW:      %s\n", formatAmount(bal.Token))
	fmt.Printf("Nonce:    %d\n", bal.Nonce)
}

func cmdTransfer(client *rpcclient.Client, args []string, ksDir string) {
	fs := flag.NewFlagSet("transfer", flag.ExitOnError)
	keyName := fs.String("key", "", "Key name")
	to := fs.String("to", "", "Recipient address")
	amountStr := fs.String("amount", "", "Amount")
	denom := fs.String("denom", ledger.DenomNative, "Denomination (native or token)")
	nonce := fs.Uint64("nonce", 0, "Nonce (default: next)")
	fs.Parse(args)

	if *keyName == "" || *to == "" || *amountStr == "" {
		fatal("Usage: klingswap-cli transfer --key <k> --to <addr> --amount <amt> [--denom native|token]")
	}
	if _, err := types.ParseAddress(*to); err != nil {
		fatal("invalid recipient: %v", err)
	}
	amount, err := parseAmount(*amountStr)
	if err != nil {
		fatal("invalid amount: %v", err)
	}

	key := unlockKey(ksDir, *keyName)
	defer key.Zero()

	payload := rpc.TransferPayload{To: *to, Denom: *denom, Amount: amount}
	var result rpc.TransferResult
	signedCall(client, rpc.MethodTransfer, payload, key, *nonce, &result)
	fmt.Printf("Transferred %s %s to %s (nonce %d)\n", formatAmount(amount), *denom, *to, result.Nonce)
}

func cmdInvariants(client *rpcclient.Client) {
	var result rpc.InvariantsResult
	if err := client.Call(rpc.MethodCheckInvariants, nil, &result); err != nil {
		fatal("ledger_checkInvariants: %v", err)
	}
	for _, r := range result.Results {
		status := "ok"
		if !r.OK {
			status = "BROKEN"
		}
		fmt.Printf("  %-20s %s %s\n", r.Name, status, r.Detail)
	}
	if !result.OK {
		os.Exit(2)
	}
}

// ── keys ────────────────────────────────────────────────────────────────

func cmdKey(args []string, ksDir string) {
	if len(args) < 1 {
		fatal("Usage: klingswap-cli key <create|import|list|address> [flags]")
	}

	switch args[0] {
	case "create":
		cmdKeyCreate(args[1:], ksDir)
	case "import":
		cmdKeyImport(args[1:], ksDir)
	case "list":
		cmdKeyList(ksDir)
	case "address":
		cmdKeyAddress(args[1:], ksDir)
	default:
		fatal("Unknown key command: %s\nUsage: klingswap-cli key <create|import|list|address> [flags]", args[0])
	}
}

func openKeystore(ksDir string) *keystore.Keystore {
	ks, err := keystore.New(ksDir, keystore.DefaultParams())
	if err != nil {
		fatal("open keystore: %v", err)
	}
	return ks
}

func cmdKeyCreate(args []string, ksDir string) {
	fs := flag.NewFlagSet("key create", flag.ExitOnError)
	name := fs.String("name", "", "Key name")
	fs.Parse(args)

	if *name == "" {
		fatal("Usage: klingswap-cli key create --name <name>")
	}

	mnemonic, err := keystore.GenerateMnemonic()
	if err != nil {
		fatal("generate mnemonic: %v", err)
	}

	fmt.Println("Mnemonic (write this down!):")
	fmt.Printf("  %s\n\n", mnemonic)

	info := storeKey(ksDir, *name, mnemonic, keystore.Path{})
	fmt.Printf("\nKey created: %s\n", info.Name)
	fmt.Printf("Address: %s\n", info.Address)
}

func cmdKeyImport(args []string, ksDir string) {
	fs := flag.NewFlagSet("key import", flag.ExitOnError)
	name := fs.String("name", "", "Key name")
	mnemonic := fs.String("mnemonic", "", "BIP-39 mnemonic")
	account := fs.Uint("account", 0, "BIP-44 account")
	index := fs.Uint("index", 0, "Address index")
	fs.Parse(args)

	if *name == "" || *mnemonic == "" {
		fatal("Usage: klingswap-cli key import --name <n> --mnemonic \"...\"")
	}
	if *account > math.MaxInt32 || *index > math.MaxInt32 {
		fatal("account and index must be below 2^31")
	}

	p := keystore.Path{Account: uint32(*account), Index: uint32(*index)}
	info := storeKey(ksDir, *name, strings.TrimSpace(*mnemonic), p)
	fmt.Printf("Key imported: %s\n", info.Name)
	fmt.Printf("Path:    %s\n", info.Path)
	fmt.Printf("Address: %s\n", info.Address)
}

func storeKey(ksDir, name, mnemonic string, p keystore.Path) keystore.KeyInfo {
	password, err := readPassword("Enter password: ")
	if err != nil {
		fatal("read password: %v", err)
	}
	confirm, err := readPassword("Confirm password: ")
	if err != nil {
		fatal("read password: %v", err)
	}
	if string(password) != string(confirm) {
		fatal("passwords do not match")
	}

	info, err := openKeystore(ksDir).Create(name, mnemonic, p, password)
	if err != nil {
		fatal("store key: %v", err)
	}
	return info
}

func cmdKeyList(ksDir string) {
	keys, err := openKeystore(ksDir).List()
	if err != nil {
		fatal("list keys: %v", err)
	}
	if len(keys) == 0 {
		fmt.Println("No keys found.")
		return
	}
	for _, k := range keys {
		fmt.Printf("  %-16s %s  %s\n", k.Name, k.Address, k.Path)
	}
}

func cmdKeyAddress(args []string, ksDir string) {
	fs := flag.NewFlagSet("key address", flag.ExitOnError)
	name := fs.String("name", "", "Key name")
	asJSON := fs.Bool("json", false, "Print key info as JSON")
	fs.Parse(args)

	if *name == "" {
		fatal("Usage: klingswap-cli key address --name <name>")
	}
	info, err := openKeystore(ksDir).Info(*name)
	if err != nil {
		fatal("key %s: %v", *name, err)
	}
	if *asJSON {
		out, _ := json.MarshalIndent(info, "", "  ")
		fmt.Println(string(out))
		return
	}
	fmt.Println(info.Address)
}

// ── signing ─────────────────────────────────────────────────────────────

func unlockKey(ksDir, name string) *crypto.PrivateKey {
	password, err := readPassword("Enter password: ")
	if err != nil {
		fatal("read password: %v", err)
	}
	key, err := openKeystore(ksDir).Unlock(name, password)
	if errors.Is(err, keystore.ErrWrongPassword) {
		fatal("wrong password for key %s", name)
	}
	if err != nil {
		fatal("unlock %s: %v", name, err)
	}
	return key
}

// signedCall signs payload with key and invokes method. A zero nonce
// means "fetch the next one from the node".
func signedCall(client *rpcclient.Client, method string, payload interface{}, key *crypto.PrivateKey, nonce uint64, result interface{}) {
	if nonce == 0 {
		next, err := client.NextNonce(key.Address())
		if err != nil {
			fatal("fetch nonce: %v", err)
		}
		nonce = next
	}
	if err := client.SignedCall(method, payload, key, nonce, result); err != nil {
		if rpcclient.IsCode(err, rpc.CodeBadNonce) {
			fatal("%s: %v (retry without --nonce to use the next one)", method, err)
		}
		fatal("%s: %v", method, err)
	}
}

// ── amounts ─────────────────────────────────────────────────────────────

// formatAmount renders raw units as a decimal with 12 places.
func formatAmount(units uint64) string {
	whole := units / config.Coin
	frac := units % config.Coin
	return fmt.Sprintf("%d.%012d", whole, frac)
}

// parseAmount converts a decimal string to raw units.
func parseAmount(s string) (uint64, error) {
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}
	if strings.HasPrefix(s, "-") {
		return 0, fmt.Errorf("negative amount")
	}

	parts := strings.SplitN(s, ".", 2)

	whole, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid whole part: %w", err)
	}

	var frac uint64
	if len(parts) == 2 {
		fracStr := parts[1]
		if len(fracStr) > config.Decimals {
			return 0, fmt.Errorf("too many decimal places (max %d)", config.Decimals)
		}
		fracStr = fracStr + strings.Repeat("0", config.Decimals-len(fracStr))
		frac, err = strconv.ParseUint(fracStr, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid fractional part: %w", err)
		}
	}

	if whole > math.MaxUint64/config.Coin {
		return 0, fmt.Errorf("amount too large")
	}
	result := whole * config.Coin
	if result > math.MaxUint64-frac {
		return 0, fmt.Errorf("amount too large")
	}

	return result + frac, nil
}

// ── terminal ────────────────────────────────────────────────────────────

func readPassword(prompt string) ([]byte, error) {
	fmt.Fprint(os.Stderr, prompt)
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr) // newline after hidden input
	if err != nil {
		return nil, err
	}
	return password, nil
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
