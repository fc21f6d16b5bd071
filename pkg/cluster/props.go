package cluster

import (
	"fmt"
	"io"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/redshift/types"
	"github.com/jedib0t/go-pretty/v6/table"
)

// Props are the cluster properties worth showing to the user.
type Props struct {
	ClusterIdentifier string
	NodeType          string
	ClusterStatus     string
	MasterUsername    string
	DBName            string
	Endpoint          string
	Port              int
	NumberOfNodes     int
	VpcID             string
	RoleARN           string
}

func propsFromCluster(c types.Cluster) *Props {
	p := &Props{
		ClusterIdentifier: aws.ToString(c.ClusterIdentifier),
		NodeType:          aws.ToString(c.NodeType),
		ClusterStatus:     aws.ToString(c.ClusterStatus),
		MasterUsername:    aws.ToString(c.MasterUsername),
		DBName:            aws.ToString(c.DBName),
		NumberOfNodes:     int(aws.ToInt32(c.NumberOfNodes)),
		VpcID:             aws.ToString(c.VpcId),
	}
	if c.Endpoint != nil {
		p.Endpoint = aws.ToString(c.Endpoint.Address)
		p.Port = int(aws.ToInt32(c.Endpoint.Port))
	}
	if len(c.IamRoles) > 0 {
		p.RoleARN = aws.ToString(c.IamRoles[0].IamRoleArn)
	}

	return p
}

func (p *Props) Rows() [][2]string {
	endpoint := p.Endpoint
	if endpoint != "" && p.Port != 0 {
		endpoint = fmt.Sprintf("%s:%d", p.Endpoint, p.Port)
	}

	return [][2]string{
		{"ClusterIdentifier", p.ClusterIdentifier},
		{"NodeType", p.NodeType},
		{"ClusterStatus", p.ClusterStatus},
		{"MasterUsername", p.MasterUsername},
		{"DBName", p.DBName},
		{"Endpoint", endpoint},
		{"NumberOfNodes", strconv.Itoa(p.NumberOfNodes)},
		{"VpcId", p.VpcID},
	}
}

func PrintProps(w io.Writer, p *Props) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Key", "Value"})
	for _, row := range p.Rows() {
		t.AppendRow(table.Row{row[0], row[1]})
	}
	t.SetStyle(table.StyleLight)
	t.Render()
}
