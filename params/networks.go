// Copyright 2025 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

package params

// Chain IDs of the networks the wallet knows out of the box.
const (
	MainnetChainID uint64 = 1
	SepoliaChainID uint64 = 11155111
	HoleskyChainID uint64 = 17000
)

// EtherDecimals is the number of decimals of the native currency on every
// built-in network. 1 ether = 10^18 wei.
const EtherDecimals = 18

// Network describes a chain the wallet can present to sites. The chain id is
// kept numeric; hex formatting happens only where it is handed to a caller.
type Network struct {
	ChainID     uint64 `json:"chainId"`
	Name        string `json:"name"`
	RPCURL      string `json:"rpcUrl"`
	Symbol      string `json:"symbol"`
	Decimals    uint8  `json:"decimals"`
	ExplorerURL string `json:"explorerUrl,omitempty"`
	Testnet     bool   `json:"testnet,omitempty"`
}

var (
	// MainnetNetwork is the Ethereum main network.
	MainnetNetwork = Network{
		ChainID:     MainnetChainID,
		Name:        "Ethereum Mainnet",
		RPCURL:      "https://ethereum-rpc.publicnode.com",
		Symbol:      "ETH",
		Decimals:    EtherDecimals,
		ExplorerURL: "https://etherscan.io",
	}

	// SepoliaNetwork is the Sepolia test network.
	SepoliaNetwork = Network{
		ChainID:     SepoliaChainID,
		Name:        "Sepolia",
		RPCURL:      "https://ethereum-sepolia-rpc.publicnode.com",
		Symbol:      "SepoliaETH",
		Decimals:    EtherDecimals,
		ExplorerURL: "https://sepolia.etherscan.io",
		Testnet:     true,
	}

	// HoleskyNetwork is the Holesky test network.
	HoleskyNetwork = Network{
		ChainID:     HoleskyChainID,
		Name:        "Holesky",
		RPCURL:      "https://ethereum-holesky-rpc.publicnode.com",
		Symbol:      "HoleskyETH",
		Decimals:    EtherDecimals,
		ExplorerURL: "https://holesky.etherscan.io",
		Testnet:     true,
	}
)

// Networks returns the built-in network list, mainnet first.
func Networks() []Network {
	return []Network{MainnetNetwork, SepoliaNetwork, HoleskyNetwork}
}
