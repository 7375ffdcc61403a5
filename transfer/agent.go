package transfer

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"path"
	"strconv"
	"time"

	"github.com/openquery/dispatcher/job"
	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
)

// Agent transfers a local file to the destination named by dest, under
// remoteDir, returning the remote path the file ended up at.
type Agent interface {
	Transfer(ctx context.Context, localPath string, dest job.UserSettings, remoteDir, remoteName string) (remotePath string, err error)
}

// SSHAgent is the Agent implementation used in production: it dials the
// destination host over SSH and copies the file via SFTP.
type SSHAgent struct {
	// DialTimeout bounds the initial TCP+SSH handshake.
	DialTimeout time.Duration
	// DefaultRemoteDir is used when a transfer's remoteDir argument is
	// empty, i.e. neither the job nor the user's settings named an
	// export_location.
	DefaultRemoteDir string
}

func defaultPort(p int) string {
	if p <= 0 {
		return "22"
	}
	return strconv.Itoa(p)
}

func (a *SSHAgent) clientConfig(dest job.UserSettings) (*ssh.ClientConfig, error) {
	cfg := &ssh.ClientConfig{
		User:            dest.SSHUsername,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         a.DialTimeout,
	}
	if dest.SSHKey != "" {
		var signer ssh.Signer
		var err error
		if dest.SSHKeyPassphrase != "" {
			signer, err = ssh.ParsePrivateKeyWithPassphrase([]byte(dest.SSHKey), []byte(dest.SSHKeyPassphrase))
		} else {
			signer, err = ssh.ParsePrivateKey([]byte(dest.SSHKey))
		}
		if err != nil {
			return nil, fmt.Errorf("%w: parse private key: %v", ErrAuth, err)
		}
		cfg.Auth = append(cfg.Auth, ssh.PublicKeys(signer))
	}
	if dest.SSHPassword != "" {
		cfg.Auth = append(cfg.Auth, ssh.Password(dest.SSHPassword))
	}
	if len(cfg.Auth) == 0 {
		return nil, fmt.Errorf("%w: no credentials configured for user %s", ErrAuth, dest.SSHUsername)
	}
	return cfg, nil
}

// Transfer dials dest over SSH, opens an SFTP session, and copies
// localPath to remoteDir/remoteName (falling back to DefaultRemoteDir
// when remoteDir is empty). Any file already at that remote path is
// overwritten. Transfer verifies the uploaded byte count against the local
// file before returning.
func (a *SSHAgent) Transfer(ctx context.Context, localPath string, dest job.UserSettings, remoteDir, remoteName string) (string, error) {
	local, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("%w: open local file: %v", ErrTransfer, err)
	}
	defer local.Close()

	localInfo, err := local.Stat()
	if err != nil {
		return "", fmt.Errorf("%w: stat local file: %v", ErrTransfer, err)
	}

	cfg, err := a.clientConfig(dest)
	if err != nil {
		return "", err
	}

	addr := net.JoinHostPort(dest.SSHHostname, defaultPort(dest.SSHPort))
	dialer := net.Dialer{Timeout: a.DialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return "", fmt.Errorf("%w: dial %s: %v", ErrConnect, addr, err)
	}
	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, cfg)
	if err != nil {
		conn.Close()
		return "", fmt.Errorf("%w: ssh handshake: %v", ErrConnect, err)
	}
	client := ssh.NewClient(sshConn, chans, reqs)
	defer client.Close()

	sc, err := sftp.NewClient(client)
	if err != nil {
		return "", fmt.Errorf("%w: open sftp session: %v", ErrConnect, err)
	}
	defer sc.Close()

	if remoteDir == "" {
		remoteDir = a.DefaultRemoteDir
	}
	if remoteDir == "" {
		remoteDir = "."
	}
	if err := sc.MkdirAll(remoteDir); err != nil {
		return "", fmt.Errorf("%w: mkdir %s: %v", ErrTransfer, remoteDir, err)
	}
	remotePath := path.Join(remoteDir, remoteName)

	remote, err := sc.Create(remotePath)
	if err != nil {
		return "", fmt.Errorf("%w: create remote file: %v", ErrTransfer, err)
	}
	if _, err := io.Copy(remote, local); err != nil {
		remote.Close()
		return "", fmt.Errorf("%w: copy: %v", ErrTransfer, err)
	}
	if err := remote.Close(); err != nil {
		return "", fmt.Errorf("%w: close remote file: %v", ErrTransfer, err)
	}

	info, err := sc.Stat(remotePath)
	if err != nil {
		return "", fmt.Errorf("%w: stat uploaded file: %v", ErrTransfer, err)
	}
	if info.Size() != localInfo.Size() {
		return "", fmt.Errorf("%w: uploaded %d bytes, expected %d", ErrTransfer, info.Size(), localInfo.Size())
	}
	return remotePath, nil
}
