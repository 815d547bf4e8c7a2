/*
Package bridgesdk is a client for the IRC identity bridge, for use by the
owning application.

# Provisioning

The owning application authenticates its users itself and forwards the
user's access token. The bridge trusts the token's subject as the external
user id:

	client := bridgesdk.NewClient("https://bridge.example.com")

	creds, err := client.Provision(ctx, accessToken, bridgesdk.ProvisionRequest{
		Channels: []string{"general"},
	})
	if err != nil {
		var apiErr *bridgesdk.APIError
		if errors.As(err, &apiErr) && apiErr.Retryable {
			// show a retry affordance, or fall back to manual sign-in
		}
		return err
	}

	// creds.LoginURL carries a live credential. Hand it to the iframe and
	// nothing else: do not log it, store it or put it in a redirect.

Every call to Provision rotates the secret; earlier secrets stop working.

# Deprovisioning

Call Deprovision from the user-deletion path so the bouncer account is
rejected from the next login on:

	err := client.Deprovision(ctx, accessToken)
	if bridgesdk.IsNotProvisioned(err) {
		// nothing to do
	}
*/
package bridgesdk
