package firebase

import (
	"context"
	"errors"
	"fmt"

	firebase "firebase.google.com/go/v4"
	fbauth "firebase.google.com/go/v4/auth"
	"github.com/brandonhuynh1/eventwish-api/internal/auth"
	"google.golang.org/api/option"
)

// Client verifies Firebase ID tokens with the Admin SDK
type Client struct {
	auth *fbauth.Client
}

// Credentials selects the service account used by the Admin SDK. JSON wins
// over File. With neither, application default credentials are used.
type Credentials struct {
	ProjectID string
	JSON      string
	File      string
}

// NewClient creates a new Firebase auth client
func NewClient(ctx context.Context, creds Credentials) (*Client, error) {
	var opts []option.ClientOption
	switch {
	case creds.JSON != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(creds.JSON)))
	case creds.File != "":
		opts = append(opts, option.WithCredentialsFile(creds.File))
	}

	var conf *firebase.Config
	if creds.ProjectID != "" {
		conf = &firebase.Config{ProjectID: creds.ProjectID}
	}

	app, err := firebase.NewApp(ctx, conf, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialise firebase app: %w", err)
	}

	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create firebase auth client: %w", err)
	}

	return &Client{auth: client}, nil
}

// Verify checks an ID token, including revocation
func (c *Client) Verify(ctx context.Context, idToken string) (*auth.Identity, error) {
	if idToken == "" {
		return nil, auth.ErrMissingToken
	}

	token, err := c.auth.VerifyIDTokenAndCheckRevoked(ctx, idToken)
	if err != nil {
		return nil, classify(err)
	}

	identity := &auth.Identity{UID: token.UID}
	if email, ok := token.Claims["email"].(string); ok {
		identity.Email = email
	}
	return identity, nil
}

func classify(err error) error {
	switch {
	case fbauth.IsIDTokenExpired(err):
		return fmt.Errorf("%w: %v", auth.ErrTokenExpired, err)
	case fbauth.IsIDTokenRevoked(err):
		return fmt.Errorf("%w: %v", auth.ErrTokenRevoked, err)
	case fbauth.IsIDTokenInvalid(err):
		return fmt.Errorf("%w: %v", auth.ErrInvalidToken, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return fmt.Errorf("firebase verification failed: %w", err)
	}
}
