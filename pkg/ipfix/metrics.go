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

package ipfix

import "github.com/prometheus/client_golang/prometheus"

// Decoder-level metrics, registered by the binary embedding this package
// (see cmd/ipfixcollectord). Kept as package vars rather than per-Decoder
// fields because Decode is a pure function, not a long-lived object.
var (
	PacketsDecodedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ipfix_decoder_packets_decoded_total",
		Help: "Total number of IPFIX datagrams successfully decoded into a PacketInfo",
	})
	PacketsAbortedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ipfix_decoder_packets_aborted_total",
		Help: "Total number of IPFIX datagrams rejected as AbortError",
	})
	SetsSkippedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ipfix_decoder_sets_skipped_total",
		Help: "Total number of sets skipped due to recoverable errors, by reason",
	}, []string{"reason"})
	TemplatesLearnedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ipfix_decoder_templates_learned_total",
		Help: "Total number of template definitions decoded from template sets",
	})
	DataRecordsDecodedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ipfix_decoder_data_records_decoded_total",
		Help: "Total number of data records decoded across all data sets",
	})
)

// AllCollectors returns every prometheus.Collector defined by this package,
// for registration against a prometheus.Registerer at startup.
func AllCollectors() []prometheus.Collector {
	return []prometheus.Collector{
		PacketsDecodedTotal,
		PacketsAbortedTotal,
		SetsSkippedTotal,
		TemplatesLearnedTotal,
		DataRecordsDecodedTotal,
	}
}
