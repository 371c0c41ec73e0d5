package auth

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/simple-easy-sites/simple-sales-crm/platform/go/auth/devtoken"
)

// devTokenCommand mints a token the API accepts when AUTH_PROVIDER=dev. The
// identity flags default to FIREBASE_PROJECT_ID, CRM_AGENT_ID and CRM_AGENT_EMAIL
// so the token matches the agent the other commands act as.
func devTokenCommand() *cobra.Command {
	var (
		params     devtoken.Params
		withHeader bool
	)

	cmd := &cobra.Command{
		Use:   "devtoken",
		Short: "Mint an unsigned agent token for an API running with AUTH_PROVIDER=dev",
		Example: `  crm auth devtoken --project-id demo-crm --agent-id agent-1 --email agent@example.com
  curl -H "$(crm auth devtoken --header)" localhost:3000/api/v1/leads`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := devtoken.BuildUnsignedFirebaseToken(params, time.Now().UTC())
			if err != nil {
				return fmt.Errorf("%w (set the matching flag or environment variable)", err)
			}

			if withHeader {
				fmt.Fprintf(cmd.OutOrStdout(), "Authorization: Bearer %s\n", token)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&params.ProjectID, "project-id", os.Getenv("FIREBASE_PROJECT_ID"), "Firebase project id used for iss and aud (FIREBASE_PROJECT_ID)")
	flags.StringVar(&params.AgentID, "agent-id", os.Getenv("CRM_AGENT_ID"), "agent id written to user_id and sub (CRM_AGENT_ID)")
	flags.StringVar(&params.Email, "email", os.Getenv("CRM_AGENT_EMAIL"), "agent email claim (CRM_AGENT_EMAIL)")
	flags.StringVar(&params.Name, "name", "", "display name claim")
	flags.BoolVar(&params.EmailVerified, "email-verified", true, "email_verified claim")
	flags.StringVar(&params.FirebaseSignInProvider, "sign-in-provider", "password", "firebase.sign_in_provider claim")
	flags.DurationVar(&params.ExpiresIn, "expires-in", time.Hour, "token lifetime (e.g. 30m, 2h)")
	flags.StringVar(&params.Audience, "audience", "", "aud override; defaults to the project id")
	flags.StringVar(&params.Issuer, "issuer", "", "iss override; defaults to the securetoken URL of the project")
	flags.BoolVar(&withHeader, "header", false, "print a complete Authorization header")

	return cmd
}
