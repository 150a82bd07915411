/*
Copyright 2023 Alexander Bartolomey (github@alexanderbartolomey.de)

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package collector

import "github.com/prometheus/client_golang/prometheus"

// Socket-level metrics, grounded on the teacher's UDPPacketsTotal/
// UDPErrorsTotal/UDPPacketBytes (udp.go). pkg/ipfix's own metrics cover
// decode outcomes; these cover the transport layer the decoder never sees.
var (
	udpDatagramsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ipfix_collector_udp_datagrams_total",
		Help: "Total number of UDP datagrams received by the coordinator",
	})
	udpBytesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ipfix_collector_udp_bytes_total",
		Help: "Total number of bytes read from the UDP socket",
	})
	udpReadErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ipfix_collector_udp_read_errors_total",
		Help: "Total number of non-timeout errors reading from the UDP socket",
	})
)

// AllCollectors returns every prometheus.Collector defined by this
// package, for registration against a prometheus.Registerer at startup.
func AllCollectors() []prometheus.Collector {
	return []prometheus.Collector{
		udpDatagramsTotal,
		udpBytesTotal,
		udpReadErrorsTotal,
	}
}
