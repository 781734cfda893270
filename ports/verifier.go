package ports

import "github.com/layer-3/walletauth/core"

// SignatureVerifier checks that signature over payload was produced by the key controlling address
type SignatureVerifier interface {
	VerifySignature(network core.Network, address string, payload []byte, signature string) error
}
