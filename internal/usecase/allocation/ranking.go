package allocation

import (
	"sort"

	domainDevice "satdesk-manager/internal/domain/device"
)

// recommendedCount is how many top-ranked candidates are surfaced as
// "recommended" in suggestion listings.
const recommendedCount = 5

// rankDevices sorts candidates by condition score descending, with ascending
// device number as a deterministic tiebreak. The input slice is sorted in
// place and returned.
func rankDevices(devices []*domainDevice.Device) []*domainDevice.Device {
	sort.SliceStable(devices, func(i, j int) bool {
		si, sj := devices[i].ConditionScore(), devices[j].ConditionScore()
		if si != sj {
			return si > sj
		}
		return devices[i].DeviceNumber < devices[j].DeviceNumber
	})
	return devices
}
