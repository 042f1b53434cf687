package protocol

// Reference:
//   SOCKS5: https://datatracker.ietf.org/doc/html/rfc1928
//   SHADOWSOCKS (legacy stream format): https://shadowsocks.org/doc/what-is-shadowsocks.html

// Tunnel wire format (one TCP connection per client session):
//
//  first bytes in each direction:  IV (16 bytes, aes-256-cfb; absent for table)
//  remainder, encrypted as one continuous stream:
//    local -> remote:  ADDR HEADER || raw client payload ...
//    remote -> local:  raw origin payload ...
//
// ADDR HEADER:
//  ATYP | DST.ADDR        | DST.PORT
//   1   | 4 / 1+len / 16  |    2
//
//  ATYP 0x01: IPv4, 4 bytes
//  ATYP 0x03: 1 byte length + hostname bytes
//  ATYP 0x04: IPv6, 16 bytes
//
// There is no length framing, no message boundary and no MAC: the stream
// cipher position cannot be rewound, so nothing inside the tunnel is ever
// retried or re-synced.
