package knxip

import "fmt"

// DIBType identifies a Description Information Block's content.
type DIBType byte

const (
	DIBDeviceInfo               DIBType = 0x01
	DIBSupportedServiceFamilies DIBType = 0x02
)

// DeviceInfoSize is the fixed wire length of a device-information DIB.
const DeviceInfoSize = 54

// MediumCode identifies the KNX medium in a device-information DIB.
type MediumCode byte

const MediumIP MediumCode = 0x02

// DeviceInfo is the device-information DIB (type 0x01).
type DeviceInfo struct {
	Medium            MediumCode
	Status            byte
	IndividualAddress uint16
	ProjectInstallID  uint16
	Serial            [6]byte
	MulticastAddr     [4]byte
	MAC               [6]byte
	FriendlyName      string // truncated/padded to 30 bytes on encode
}

// Encode packs the device-information DIB to its 54 wire bytes.
func (d DeviceInfo) Encode() []byte {
	buf := make([]byte, DeviceInfoSize)
	buf[0] = DeviceInfoSize
	buf[1] = byte(DIBDeviceInfo)
	buf[2] = byte(d.Medium)
	buf[3] = d.Status
	buf[4] = byte(d.IndividualAddress >> 8)
	buf[5] = byte(d.IndividualAddress)
	buf[6] = byte(d.ProjectInstallID >> 8)
	buf[7] = byte(d.ProjectInstallID)
	copy(buf[8:14], d.Serial[:])
	copy(buf[14:18], d.MulticastAddr[:])
	copy(buf[18:24], d.MAC[:])

	name := []byte(d.FriendlyName)
	if len(name) > 30 {
		name = name[:30]
	}
	copy(buf[24:54], name)
	return buf
}

// DecodeDeviceInfo unpacks a device-information DIB from the front of buf.
func DecodeDeviceInfo(buf []byte) (DeviceInfo, error) {
	if len(buf) < DeviceInfoSize {
		return DeviceInfo{}, fmt.Errorf("%w: device-info DIB needs %d bytes, got %d", ErrMalformed, DeviceInfoSize, len(buf))
	}
	if DIBType(buf[1]) != DIBDeviceInfo {
		return DeviceInfo{}, fmt.Errorf("%w: expected device-info DIB type, got %#x", ErrMalformed, buf[1])
	}
	d := DeviceInfo{
		Medium:            MediumCode(buf[2]),
		Status:            buf[3],
		IndividualAddress: uint16(buf[4])<<8 | uint16(buf[5]),
		ProjectInstallID:  uint16(buf[6])<<8 | uint16(buf[7]),
	}
	copy(d.Serial[:], buf[8:14])
	copy(d.MulticastAddr[:], buf[14:18])
	copy(d.MAC[:], buf[18:24])
	name := buf[24:54]
	end := len(name)
	for end > 0 && name[end-1] == 0 {
		end--
	}
	d.FriendlyName = string(name[:end])
	return d, nil
}

// ServiceFamily is one {family-id, version} pair in a
// supported-service-families DIB.
type ServiceFamily struct {
	FamilyID byte
	Version  byte
}

// Service family ids used by the core.
const (
	ServiceFamilyCore    byte = 0x02
	ServiceFamilyRouting byte = 0x05
)

// SupportedServices is the supported-service-families DIB (type 0x02).
type SupportedServices struct {
	Families []ServiceFamily
}

// Encode packs the DIB to wire bytes.
func (s SupportedServices) Encode() []byte {
	length := 2 + 2*len(s.Families)
	buf := make([]byte, length)
	buf[0] = byte(length)
	buf[1] = byte(DIBSupportedServiceFamilies)
	for i, f := range s.Families {
		buf[2+2*i] = f.FamilyID
		buf[2+2*i+1] = f.Version
	}
	return buf
}

// DecodeSupportedServices unpacks a supported-service-families DIB from
// the front of buf.
func DecodeSupportedServices(buf []byte) (SupportedServices, error) {
	if len(buf) < 2 {
		return SupportedServices{}, fmt.Errorf("%w: supported-services DIB needs at least 2 bytes", ErrMalformed)
	}
	length := int(buf[0])
	if length > len(buf) || length < 2 || length%2 != 0 {
		return SupportedServices{}, fmt.Errorf("%w: invalid supported-services DIB length %d", ErrMalformed, length)
	}
	if DIBType(buf[1]) != DIBSupportedServiceFamilies {
		return SupportedServices{}, fmt.Errorf("%w: expected supported-services DIB type, got %#x", ErrMalformed, buf[1])
	}
	var s SupportedServices
	for i := 2; i < length; i += 2 {
		s.Families = append(s.Families, ServiceFamily{FamilyID: buf[i], Version: buf[i+1]})
	}
	return s, nil
}

// DefaultSupportedServices is the family list a router node advertises:
// Core v1, Routing v1.
func DefaultSupportedServices() SupportedServices {
	return SupportedServices{Families: []ServiceFamily{
		{FamilyID: ServiceFamilyCore, Version: 1},
		{FamilyID: ServiceFamilyRouting, Version: 1},
	}}
}
