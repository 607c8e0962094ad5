// Package pfconfig extracts the parts of pfSense's config.xml that pfdash
// needs: which interfaces carry gateways, which are bridges, the gateways
// themselves and the services of installed packages.
package pfconfig

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/rileyhilliard/pfdash/internal/errors"
	"github.com/rileyhilliard/pfdash/pkg/sshutil"
)

// Path is where pfSense keeps its configuration.
const Path = "/cf/conf/config.xml"

// Config holds the extracted router configuration. Interface names are OS
// names (igb0, bridge0), not pfSense names (wan, opt1).
type Config struct {
	// GatewayInterfaces are the interfaces of Gateways, in gateway-name order
	// without duplicates. The firewall log only shows these.
	GatewayInterfaces []string

	BridgeInterfaces []string

	// OtherInterfaces are every remaining interface, sorted.
	OtherInterfaces []string

	// Gateways are sorted by name.
	Gateways []Gateway

	Services []Service
}

// Gateway is a configured gateway and the OS interface it's on.
type Gateway struct {
	Name      string
	Interface string
}

// Service is a service registered by an installed package.
type Service struct {
	Name       string
	Executable string
}

// Load reads config.xml from the router and parses it.
func Load(e sshutil.Executor) (*Config, error) {
	data, err := sshutil.Output(e, "cat '"+Path+"'")
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

type document struct {
	Interfaces        *section      `xml:"interfaces"`
	Gateways          *gatewaysXML  `xml:"gateways"`
	Bridges           *bridgesXML   `xml:"bridges"`
	InstalledPackages *installedXML `xml:"installedpackages"`
}

// section captures every child element, since interface elements are named
// after the pfSense interface (wan, lan, opt1...).
type section struct {
	Items []interfaceXML `xml:",any"`
}

type interfaceXML struct {
	XMLName xml.Name
	If      *string `xml:"if"`
}

type gatewaysXML struct {
	Items []struct {
		Name      *string `xml:"name"`
		Interface *string `xml:"interface"`
	} `xml:"gateway_item"`
}

type bridgesXML struct {
	Items []struct {
		BridgeIf *string `xml:"bridgeif"`
	} `xml:"bridged"`
}

type installedXML struct {
	Services []struct {
		Name       *string `xml:"name"`
		Executable *string `xml:"executable"`
	} `xml:"service"`
}

func decodeErr(format string, args ...any) error {
	return errors.Decode(fmt.Errorf(format, args...), Path)
}

func text(p *string, path string) (string, error) {
	if p == nil {
		return "", decodeErr("%s not found", path)
	}
	v := strings.TrimSpace(*p)
	if v == "" {
		return "", decodeErr("%s is empty", path)
	}
	return v, nil
}

// Parse extracts a Config from config.xml content.
func Parse(data []byte) (*Config, error) {
	var doc document
	dec := xml.NewDecoder(bytes.NewReader(data))
	// config.xml declares ISO-8859-1 on some installs; names are ASCII.
	dec.CharsetReader = func(_ string, input io.Reader) (io.Reader, error) { return input, nil }
	if err := dec.Decode(&doc); err != nil {
		return nil, errors.Decode(err, Path)
	}

	switch {
	case doc.Interfaces == nil:
		return nil, decodeErr("interfaces not found in config.xml")
	case doc.Gateways == nil:
		return nil, decodeErr("gateways not found in config.xml")
	case doc.InstalledPackages == nil:
		return nil, decodeErr("installedpackages not found in config.xml")
	}

	// pfSense name -> OS name
	interfaces := make(map[string]string, len(doc.Interfaces.Items))
	for _, item := range doc.Interfaces.Items {
		osName, err := text(item.If, "interfaces."+item.XMLName.Local+".if")
		if err != nil {
			return nil, err
		}
		interfaces[item.XMLName.Local] = osName
	}

	cfg := &Config{}

	for _, item := range doc.Gateways.Items {
		name, err := text(item.Name, "gateways.gateway_item.name")
		if err != nil {
			return nil, err
		}
		iface, err := text(item.Interface, "gateways.gateway_item.interface")
		if err != nil {
			return nil, err
		}
		osName, ok := interfaces[iface]
		if !ok {
			return nil, decodeErr("gateway %s is defined on interface %s but this interface does not exist", name, iface)
		}
		cfg.Gateways = append(cfg.Gateways, Gateway{Name: name, Interface: osName})
	}
	sort.Slice(cfg.Gateways, func(i, j int) bool { return cfg.Gateways[i].Name < cfg.Gateways[j].Name })

	remaining := make(map[string]bool, len(interfaces))
	for _, osName := range interfaces {
		remaining[osName] = true
	}

	seen := make(map[string]bool)
	for _, gw := range cfg.Gateways {
		if seen[gw.Interface] {
			continue
		}
		seen[gw.Interface] = true
		cfg.GatewayInterfaces = append(cfg.GatewayInterfaces, gw.Interface)
		delete(remaining, gw.Interface)
	}

	if doc.Bridges != nil {
		for _, item := range doc.Bridges.Items {
			bridge, err := text(item.BridgeIf, "bridges.bridged.bridgeif")
			if err != nil {
				return nil, err
			}
			if !remaining[bridge] {
				return nil, decodeErr("bridge %s does not exist as an interface", bridge)
			}
			delete(remaining, bridge)
			cfg.BridgeInterfaces = append(cfg.BridgeInterfaces, bridge)
		}
	}

	for osName := range remaining {
		cfg.OtherInterfaces = append(cfg.OtherInterfaces, osName)
	}
	sort.Strings(cfg.OtherInterfaces)

	for _, svc := range doc.InstalledPackages.Services {
		name, err := text(svc.Name, "installedpackages.service.name")
		if err != nil {
			return nil, err
		}
		exe, err := text(svc.Executable, "installedpackages.service.executable")
		if err != nil {
			return nil, err
		}
		cfg.Services = append(cfg.Services, Service{Name: name, Executable: exe})
	}

	return cfg, nil
}

// Interfaces returns every interface name in display order: gateways,
// bridges, then the rest.
func (c *Config) Interfaces() []string {
	out := make([]string, 0, len(c.GatewayInterfaces)+len(c.BridgeInterfaces)+len(c.OtherInterfaces))
	out = append(out, c.GatewayInterfaces...)
	out = append(out, c.BridgeInterfaces...)
	return append(out, c.OtherInterfaces...)
}
