//go:build !(386 || amd64 || arm || arm64 || loong64 || mips64le || mipsle || ppc64le || riscv64 || wasm)

package pulsecore

// Native endian formats.
const (
	SampleS16NE     = SampleS16BE
	SampleFloat32NE = SampleFloat32BE
)
