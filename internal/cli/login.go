package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/sona-astrovision/astrochat/internal/api"
	"github.com/sona-astrovision/astrochat/internal/store"
)

var mobilePattern = regexp.MustCompile(`^\d{10}$`)
var otpPattern = regexp.MustCompile(`^\d{4}$`)

// otpWindow bounds how long an issued OTP may sit in the prompt before
// the user has to start over.
const otpWindow = 5 * time.Minute

var loginCmd = &cobra.Command{
	Use:   "login <mobile>",
	Short: "Log in with your phone number",
	Long: `Log in with your 10-digit phone number. An OTP is sent to the
number; enter it at the prompt to finish. New users are walked through
registration (birth details drive the chart computation).

Examples:
  astrochat login 9876543210`,
	Args: cobra.ExactArgs(1),
	RunE: runLogin,
}

func runLogin(cmd *cobra.Command, args []string) error {
	mobile := strings.TrimSpace(args[0])
	if !mobilePattern.MatchString(mobile) {
		return fmt.Errorf("please enter a valid 10-digit mobile number")
	}

	ctx := cmd.Context()
	if err := backend.SendOTP(ctx, mobile); err != nil {
		return fmt.Errorf("failed to send OTP: %w", err)
	}
	if err := st.Set(store.KeyMobile, mobile); err != nil {
		return fmt.Errorf("save mobile: %w", err)
	}
	fmt.Printf("OTP sent to +91 %s.\n", mobile)

	reader := bufio.NewReader(os.Stdin)
	otp, err := promptOTP(ctx, mobile, reader)
	if err != nil {
		return err
	}

	res, err := backend.VerifyOTP(ctx, mobile, otp)
	if err != nil {
		return fmt.Errorf("verification failed: %w", err)
	}
	if err := finishVerify(ctx, backend, st, res, mobile, reader, os.Stdout); err != nil {
		return err
	}

	fmt.Println("Logged in. Run 'astrochat chat' to start your consultation.")
	return nil
}

// registrar is the slice of the backend the post-verification flow needs.
type registrar interface {
	Register(ctx context.Context, input api.RegisterInput) error
}

// finishVerify stores the access token and routes on is_new_user: new
// users are walked through registration before chat, existing users are
// done immediately.
func finishVerify(ctx context.Context, gw registrar, st *store.Store, res *api.VerifyResult, mobile string, in *bufio.Reader, out io.Writer) error {
	if err := st.Set(store.KeyToken, res.AccessToken); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	if !res.IsNewUser {
		return nil
	}
	fmt.Fprintln(out, "Welcome to Findastro! A few details to cast your chart:")
	return runRegistration(ctx, gw, st, mobile, in, out)
}

// promptOTP reads the 4-digit OTP, supporting 'r' to resend. Entry
// expires after otpWindow, matching the backend's code lifetime.
func promptOTP(ctx context.Context, mobile string, reader *bufio.Reader) (string, error) {
	issued := time.Now()

	for {
		fmt.Print("Enter OTP (4 digits, 'r' to resend): ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("read OTP: %w", err)
		}
		input := strings.TrimSpace(line)

		if time.Since(issued) > otpWindow {
			return "", fmt.Errorf("OTP entry expired, run login again")
		}

		if strings.EqualFold(input, "r") {
			if err := backend.SendOTP(ctx, mobile); err != nil {
				fmt.Printf("Resend failed: %v\n", err)
				continue
			}
			issued = time.Now()
			fmt.Println("OTP resent.")
			continue
		}

		if !otpPattern.MatchString(input) {
			fmt.Println("Please enter all 4 digits.")
			continue
		}
		return input, nil
	}
}

func runRegistration(ctx context.Context, gw registrar, st *store.Store, mobile string, in *bufio.Reader, out io.Writer) error {
	prompt := func(label string) (string, error) {
		fmt.Fprintf(out, "%s: ", label)
		line, err := in.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("read input: %w", err)
		}
		return strings.TrimSpace(line), nil
	}

	name, err := prompt("Name")
	if err != nil {
		return err
	}
	gender, err := prompt("Gender")
	if err != nil {
		return err
	}
	birthDate, err := prompt("Birth date (YYYY-MM-DD)")
	if err != nil {
		return err
	}
	birthTime, err := prompt("Birth time (HH:MM)")
	if err != nil {
		return err
	}
	birthPlace, err := prompt("Birth place")
	if err != nil {
		return err
	}

	input := api.RegisterInput{
		Mobile:     mobile,
		Name:       name,
		Gender:     gender,
		BirthDate:  birthDate,
		BirthTime:  birthTime,
		BirthPlace: birthPlace,
	}
	if err := gw.Register(ctx, input); err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}
	if name != "" {
		if err := st.Set(store.KeyUserName, name); err != nil {
			logger.Warn("failed to cache user name", "error", err)
		}
	}

	fmt.Fprintln(out, "Registered. Your birth chart is being prepared.")
	return nil
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Log out and forget the stored session",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := st.Clear(); err != nil {
			return fmt.Errorf("clear session: %w", err)
		}
		fmt.Println("Logged out.")
		return nil
	},
}
