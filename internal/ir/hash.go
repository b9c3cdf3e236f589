package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainKernel = "symgen/kernel/v1"
	DomainCode   = "symgen/code/v1"
)

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// KernelHash computes the content hash of a kernel definition.
//
// Namespace and class are excluded: they only name the generated code, and
// the store matches them separately so a CLI override does not change the
// kernel's identity.
func KernelHash(k Kernel) (string, error) {
	canonical, err := MarshalCanonical(k.ToValue())
	if err != nil {
		return "", fmt.Errorf("KernelHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainKernel, canonical), nil
}

// MustKernelHash is like KernelHash but panics on error.
// Use only in tests or with kernels known to be valid.
func MustKernelHash(k Kernel) string {
	h, err := KernelHash(k)
	if err != nil {
		panic(err)
	}
	return h
}

// CodeHash computes the content hash of generated source text.
func CodeHash(code string) string {
	return hashWithDomain(DomainCode, []byte(code))
}
