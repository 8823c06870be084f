// Copyright 2022 The OpenZipkin Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package zipkintracer

import (
	"net"
	"strconv"

	"github.com/pkg/errors"
)

// MakeEndpoint takes the hostport and service name that represent this Zipkin
// service, and returns an endpoint that can be attached to annotations. The
// host is resolved; an IPv4 address is preferred over an IPv6 one.
func MakeEndpoint(hostport, serviceName string) (*Endpoint, error) {
	host, port, err := net.SplitHostPort(hostport)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid host:port %q", hostport)
	}

	portInt, err := strconv.ParseUint(port, 10, 16)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid port %q", port)
	}

	var addrs []net.IP
	if ip := net.ParseIP(host); ip != nil {
		addrs = []net.IP{ip}
	} else if addrs, err = net.LookupIP(host); err != nil {
		return nil, errors.Wrapf(err, "unable to resolve %q", host)
	}

	var addr4, addr16 net.IP
	for i := range addrs {
		if addr := addrs[i].To4(); addr == nil {
			if addr16 == nil {
				addr16 = addrs[i].To16() // IPv6 - 16 bytes
			}
		} else {
			if addr4 == nil {
				addr4 = addr // IPv4 - 4 bytes
			}
		}
		if addr16 != nil && addr4 != nil {
			break
		}
	}

	ip := addr4
	if ip == nil {
		ip = addr16
	}
	if ip == nil {
		return nil, errors.Errorf("no usable address for %q", host)
	}

	return NewEndpoint(serviceName, ip, uint16(portInt)), nil
}
