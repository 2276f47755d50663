// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package native

import "github.com/gogpu/computegrid/backend"

var _ backend.Device = (*HALAdapter)(nil)

func init() {
	backend.Register(backend.BackendVulkan, factory(OpenVulkan))
	backend.Register(backend.BackendNoop, factory(OpenNoop))
}

func factory(open func() (*HALAdapter, error)) backend.Factory {
	return func() (backend.Device, error) {
		a, err := open()
		if err != nil {
			return nil, err
		}
		return a, nil
	}
}
