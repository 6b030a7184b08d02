// Package filter applies BPF expressions to raw frames before decoding.
package filter

import (
	"fmt"

	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"
	"golang.org/x/net/bpf"
)

// Filter matches raw ethernet frames against a compiled BPF program.
// The zero value and a Filter built from an empty expression match everything.
type Filter struct {
	expr string
	vm   *bpf.VM
}

// Compile compiles a tcpdump-style expression for ethernet frames.
func Compile(expr string, snapLen int) (*Filter, error) {
	if expr == "" {
		return &Filter{}, nil
	}

	raw, err := CompileBpf(expr, snapLen)
	if err != nil {
		return nil, err
	}

	insns, allDecoded := bpf.Disassemble(raw)
	if !allDecoded {
		return nil, fmt.Errorf("failed to disassemble BPF filter %q", expr)
	}

	vm, err := bpf.NewVM(insns)
	if err != nil {
		return nil, fmt.Errorf("failed to load BPF filter %q: %w", expr, err)
	}
	return &Filter{expr: expr, vm: vm}, nil
}

// CompileBpf compiles expr to raw BPF instructions via libpcap.
func CompileBpf(expr string, snapLen int) ([]bpf.RawInstruction, error) {
	pcapBpf, err := pcap.CompileBPFFilter(layers.LinkTypeEthernet, snapLen, expr)
	if err != nil {
		return nil, fmt.Errorf("failed to compile BPF filter: %w", err)
	}

	rawBpf := make([]bpf.RawInstruction, len(pcapBpf))
	for i, ins := range pcapBpf {
		rawBpf[i] = bpf.RawInstruction{Op: ins.Code, Jt: ins.Jt, Jf: ins.Jf, K: ins.K}
	}
	return rawBpf, nil
}

// Expr returns the source expression.
func (f *Filter) Expr() string {
	if f == nil {
		return ""
	}
	return f.expr
}

// Match reports whether the frame passes the filter.
// bpf.VM is not safe for concurrent use, so a Filter belongs to one goroutine.
func (f *Filter) Match(data []byte) bool {
	if f == nil || f.vm == nil {
		return true
	}
	n, err := f.vm.Run(data)
	if err != nil {
		return false
	}
	return n > 0
}
