package config

import "github.com/kmirror/connector/internal/admin/kadmin"

// DialConfig converts a cluster's YAML-sourced configuration into the
// kadmin.DialConfig its admin client is dialed with.
func (c ClusterConfig) DialConfig() kadmin.DialConfig {
	dc := kadmin.DialConfig{
		ClientID: c.ClientID,
		Brokers:  c.Brokers,
	}
	if c.TLS != nil {
		dc.TLS = &kadmin.TLSConfig{
			Enabled:            c.TLS.Enabled,
			CAFile:             c.TLS.CAFile,
			CertFile:           c.TLS.CertFile,
			KeyFile:            c.TLS.KeyFile,
			InsecureSkipVerify: c.TLS.InsecureSkipVerify,
		}
	}
	if c.SASL != nil {
		dc.SASL = &kadmin.SASLConfig{
			Mechanism:   c.SASL.Mechanism,
			Username:    c.SASL.Username,
			Password:    c.SASL.Password,
			UsernameEnv: c.SASL.UsernameEnv,
			PasswordEnv: c.SASL.PasswordEnv,
		}
	}
	if c.AWS != nil {
		dc.AWS = &kadmin.AWSConfig{
			IAM:             c.AWS.IAM,
			AccessKeyEnv:    c.AWS.AccessKeyEnv,
			SecretKeyEnv:    c.AWS.SecretKeyEnv,
			SessionTokenEnv: c.AWS.SessionTokenEnv,
		}
	}
	return dc
}
