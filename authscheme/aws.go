package authscheme

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/vitalvas/reqauth/sigv4"
)

// Resolve fills an AWSV4 scheme without static keys from the AWS default
// credential chain (environment, shared config and credentials files,
// SSO, container and instance roles). A missing region is taken from the
// same configuration. Other schemes are returned unchanged.
func Resolve(ctx context.Context, s Scheme) (Scheme, error) {
	v, ok := s.(AWSV4)
	if !ok || v.Credentials.AccessKey != "" {
		return s, nil
	}

	provider, region, err := awsDefaultChain(ctx, v)
	if err != nil {
		return nil, err
	}

	creds, err := sigv4.CredentialsFromProvider(ctx, provider, region, v.Credentials.Service)
	if err != nil {
		return nil, err
	}

	v.Credentials = creds

	return v, nil
}

func awsDefaultChain(ctx context.Context, v AWSV4) (aws.CredentialsProvider, string, error) {
	var opts []func(*config.LoadOptions) error

	if v.Credentials.Region != "" {
		opts = append(opts, config.WithRegion(v.Credentials.Region))
	}

	if v.Profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(v.Profile))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", sigv4.ErrCredentialProvider, err)
	}

	if cfg.Region == "" {
		return nil, "", fmt.Errorf("%w: aws region", ErrMissingField)
	}

	return cfg.Credentials, cfg.Region, nil
}
